package storage

import (
	"time"
)

type Event struct {
	ID           int64     `db:"id" json:"id"`
	OwnerID      int64     `db:"user_id" json:"user_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description,omitempty"`
	EventTime    time.Time `db:"event_time" json:"event_time"`
	ReminderTime time.Time `db:"reminder_time" json:"reminder_time"`
	GroupID      string    `db:"group_id" json:"group_id,omitempty"`
	Notified     bool      `db:"notified" json:"notified"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (e Event) Validate() error {
	if e.Title == "" {
		return ErrEmptyTitle
	}
	if e.EventTime.IsZero() || e.ReminderTime.IsZero() {
		return ErrIncorrectEventTime
	}
	if e.ReminderTime.After(e.EventTime) {
		return ErrIncorrectReminderTime
	}
	return nil
}
