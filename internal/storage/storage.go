package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicateGroupID      = errors.New("group with same ID exists")
	ErrNotFound              = errors.New("not found")
	ErrEmptyTitle            = errors.New("title should not be empty")
	ErrEmptyGroupName        = errors.New("group name should not be empty")
	ErrIncorrectEventTime    = errors.New("incorrect event time")
	ErrIncorrectReminderTime = errors.New("reminder time should be before event time")
)

// Storage keeps events and groups. Mutating operations that take an ownerID
// return ErrNotFound both for a missing record and for an owner mismatch.
type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	AddEvent(ctx context.Context, e *Event) error
	UpdateEvent(ctx context.Context, id int64, ownerID int64, e Event) error
	RemoveEvent(ctx context.Context, id int64, ownerID int64) error
	GetEventsByUser(ctx context.Context, userID int64) ([]Event, error)
	GetEventsByGroup(ctx context.Context, groupID string) ([]Event, error)

	// GetDueReminders selects events with reminder time in (from, to]
	// that have not been notified yet.
	GetDueReminders(ctx context.Context, from time.Time, to time.Time) ([]Event, error)
	// MarkNotified sets the notified flag if it is not set yet. Marking an
	// already notified event is a no-op success.
	MarkNotified(ctx context.Context, id int64) error

	AddGroup(ctx context.Context, g *Group) error
	UpdateGroup(ctx context.Context, id string, ownerID int64, g Group) error
	RemoveGroup(ctx context.Context, id string, ownerID int64) error
	GetGroup(ctx context.Context, id string) (Group, error)
	GetGroupsByUser(ctx context.Context, userID int64) ([]Group, error)
}
