package scheduler

import (
	"context"
	"time"

	"github.com/okaralov/planner/internal/notify"
	"github.com/okaralov/planner/internal/storage"
	log "github.com/sirupsen/logrus"
)

const DefaultInterval = time.Minute

// Scanner polls the storage for due reminders and hands them to the sender.
// A reminder is due when its time falls into the half-open window
// (now-interval, now], so under strictly periodic ticks each reminder is
// picked up by exactly one tick. A tick delayed by more than one interval
// leaves a gap: reminders falling into it are not delivered.
type Scanner struct {
	storage  storage.Storage
	resolver *notify.Resolver
	sender   notify.Sender
	interval time.Duration
	now      func() time.Time
}

func NewScanner(stor storage.Storage, sender notify.Sender, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scanner{
		storage:  stor,
		resolver: notify.NewResolver(stor),
		sender:   sender,
		interval: interval,
		now:      time.Now,
	}
}

// NewScannerWithClock is NewScanner with an explicit clock.
func NewScannerWithClock(stor storage.Storage, sender notify.Sender, interval time.Duration, now func() time.Time) *Scanner {
	s := NewScanner(stor, sender, interval)
	if now != nil {
		s.now = now
	}
	return s
}

// Run scans once and then on every tick until ctx is canceled.
func (s *Scanner) Run(ctx context.Context) {
	s.Scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan performs a single tick. Each due event is dispatched first and marked
// notified after, so a crash in between re-delivers on restart rather than
// losing the reminder. A send failure for one event does not block the rest
// of the due set; a storage failure skips the whole tick.
func (s *Scanner) Scan(ctx context.Context) {
	now := s.now()
	events, err := s.storage.GetDueReminders(ctx, now.Add(-s.interval), now)
	if err != nil {
		log.Errorf("failed to get due reminders: %v", err)
		return
	}
	for _, event := range events {
		log.Debugf("dispatching reminder for event %d", event.ID)
		n := s.resolver.Resolve(ctx, event)
		if err := s.sender.Send(ctx, n); err != nil {
			log.Errorf("failed to send notification for event %d: %v", event.ID, err)
			continue
		}
		if err := s.storage.MarkNotified(ctx, event.ID); err != nil {
			log.Errorf("failed to mark event %d as notified: %v", event.ID, err)
		}
	}
}
