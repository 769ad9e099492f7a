package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okaralov/planner/internal/storage"
)

type Storage struct {
	mu     sync.RWMutex
	events map[int64]storage.Event
	groups map[string]storage.Group
	idSeq  int64
}

func New() *Storage {
	return &Storage{
		events: make(map[int64]storage.Event),
		groups: make(map[string]storage.Group),
	}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID()
	e.CreatedAt = time.Now()
	e.Notified = false
	s.events[e.ID] = *e
	return nil
}

func (s *Storage) UpdateEvent(_ context.Context, id int64, ownerID int64, e storage.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.events[id]
	if !ok || old.OwnerID != ownerID {
		return fmt.Errorf("failed to update event with id %d: %w", id, storage.ErrNotFound)
	}
	old.Title = e.Title
	old.Description = e.Description
	old.EventTime = e.EventTime
	old.ReminderTime = e.ReminderTime
	old.GroupID = e.GroupID
	s.events[id] = old
	return nil
}

func (s *Storage) RemoveEvent(_ context.Context, id int64, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.OwnerID != ownerID {
		return fmt.Errorf("failed to remove event with id %d: %w", id, storage.ErrNotFound)
	}
	delete(s.events, id)
	return nil
}

func (s *Storage) GetEventsByUser(_ context.Context, userID int64) ([]storage.Event, error) {
	return s.selectEvents(func(e storage.Event) bool { return e.OwnerID == userID }), nil
}

func (s *Storage) GetEventsByGroup(_ context.Context, groupID string) ([]storage.Event, error) {
	return s.selectEvents(func(e storage.Event) bool { return e.GroupID == groupID }), nil
}

// GetDueReminders selects not yet notified events with reminder time in (from, to].
func (s *Storage) GetDueReminders(_ context.Context, from time.Time, to time.Time) ([]storage.Event, error) {
	return s.selectEvents(func(e storage.Event) bool {
		return !e.Notified && e.ReminderTime.After(from) && !e.ReminderTime.After(to)
	}), nil
}

func (s *Storage) MarkNotified(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("failed to mark event with id %d: %w", id, storage.ErrNotFound)
	}
	if e.Notified {
		return nil
	}
	e.Notified = true
	s.events[id] = e
	return nil
}

func (s *Storage) AddGroup(_ context.Context, g *storage.Group) error {
	if err := g.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; ok {
		return fmt.Errorf("duplicate ID %q: %w", g.ID, storage.ErrDuplicateGroupID)
	}
	g.Members = storage.NormalizeMembers(g.OwnerID, g.Members)
	g.CreatedAt = time.Now()
	s.groups[g.ID] = *g
	return nil
}

func (s *Storage) UpdateGroup(_ context.Context, id string, ownerID int64, g storage.Group) error {
	if err := g.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.groups[id]
	if !ok || old.OwnerID != ownerID {
		return fmt.Errorf("failed to update group with id %q: %w", id, storage.ErrNotFound)
	}
	old.Name = g.Name
	old.Members = storage.NormalizeMembers(old.OwnerID, g.Members)
	s.groups[id] = old
	return nil
}

func (s *Storage) RemoveGroup(_ context.Context, id string, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok || g.OwnerID != ownerID {
		return fmt.Errorf("failed to remove group with id %q: %w", id, storage.ErrNotFound)
	}
	delete(s.groups, id)
	return nil
}

func (s *Storage) GetGroup(_ context.Context, id string) (storage.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return storage.Group{}, fmt.Errorf("failed to get group with id %q: %w", id, storage.ErrNotFound)
	}
	return g, nil
}

func (s *Storage) GetGroupsByUser(_ context.Context, userID int64) ([]storage.Group, error) {
	groups := make([]storage.Group, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		for _, m := range g.Members {
			if m == userID {
				groups = append(groups, g)
				break
			}
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return groups, nil
}

// Select with ascending event time ordering.
func (s *Storage) selectEvents(match func(e storage.Event) bool) []storage.Event {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.events {
		if match(event) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventTime.Before(events[j].EventTime) })
	return events
}

func (s *Storage) nextID() int64 {
	s.idSeq++
	return s.idSeq
}
