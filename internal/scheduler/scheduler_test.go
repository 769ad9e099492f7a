package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okaralov/planner/internal/notify"
	"github.com/okaralov/planner/internal/storage"
	memorystorage "github.com/okaralov/planner/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu        sync.Mutex
	sent      []notify.Notification
	failTitle string
}

func (f *fakeSender) Send(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.Title == f.failTitle {
		return errors.New("transient delivery failure")
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) sentTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		titles = append(titles, n.Title)
	}
	return titles
}

type failingStorage struct {
	storage.Storage
}

func (f *failingStorage) GetDueReminders(_ context.Context, _ time.Time, _ time.Time) ([]storage.Event, error) {
	return nil, errors.New("storage unavailable")
}

func newTestScanner(stor storage.Storage, sender notify.Sender, now time.Time) *Scanner {
	return NewScannerWithClock(stor, sender, time.Minute, func() time.Time { return now })
}

func addEvent(t *testing.T, stor storage.Storage, title string, reminder time.Time) storage.Event {
	t.Helper()
	e := storage.Event{
		OwnerID:      1,
		Title:        title,
		EventTime:    reminder.Add(time.Hour),
		ReminderTime: reminder,
	}
	require.NoError(t, stor.AddEvent(context.Background(), &e))
	return e
}

func TestScannerDispatchesDueEventOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2300, 1, 1, 12, 0, 0, 0, time.UTC)
	stor := memorystorage.New()
	sender := &fakeSender{}
	e := addEvent(t, stor, "due event", now)

	s := newTestScanner(stor, sender, now)
	s.Scan(ctx)

	require.Equal(t, []string{"due event"}, sender.sentTitles())

	events, err := stor.GetEventsByUser(ctx, 1)
	require.NoError(t, err)
	require.True(t, events[0].Notified)
	require.Equal(t, e.ID, sender.sent[0].EventID)
}

func TestScannerBackToBackScansSendAtMostOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2300, 1, 1, 12, 0, 0, 0, time.UTC)
	stor := memorystorage.New()
	sender := &fakeSender{}
	addEvent(t, stor, "due event", now)

	s := newTestScanner(stor, sender, now)
	s.Scan(ctx)
	s.Scan(ctx)

	require.Equal(t, []string{"due event"}, sender.sentTitles())
}

func TestScannerWindowBoundaries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2300, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("reminder on tick boundary is included", func(t *testing.T) {
		stor := memorystorage.New()
		sender := &fakeSender{}
		addEvent(t, stor, "on boundary", now)

		newTestScanner(stor, sender, now).Scan(ctx)
		require.Equal(t, []string{"on boundary"}, sender.sentTitles())
	})

	t.Run("reminder before the window is excluded", func(t *testing.T) {
		stor := memorystorage.New()
		sender := &fakeSender{}
		addEvent(t, stor, "too old", now.Add(-time.Minute-time.Second))

		newTestScanner(stor, sender, now).Scan(ctx)
		require.Empty(t, sender.sentTitles())
	})
}

// A tick delayed by more than one interval leaves a gap: reminders falling
// into it are silently dropped. The scanner does not compensate for this.
func TestScannerMissedTickDropsReminder(t *testing.T) {
	ctx := context.Background()
	tick1 := time.Date(2300, 1, 1, 12, 0, 0, 0, time.UTC)
	tick2 := tick1.Add(3 * time.Minute) // process was suspended for two intervals
	stor := memorystorage.New()
	sender := &fakeSender{}
	addEvent(t, stor, "falls into the gap", tick1.Add(30*time.Second))

	s := newTestScanner(stor, sender, tick1)
	s.Scan(ctx)
	s.now = func() time.Time { return tick2 }
	s.Scan(ctx)

	require.Empty(t, sender.sentTitles())
}

func TestScannerIsolatesSendFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2300, 1, 1, 12, 0, 0, 0, time.UTC)
	stor := memorystorage.New()
	sender := &fakeSender{failTitle: "failing event"}
	failing := addEvent(t, stor, "failing event", now.Add(-time.Second))
	ok := addEvent(t, stor, "ok event", now)

	newTestScanner(stor, sender, now).Scan(ctx)

	require.Equal(t, []string{"ok event"}, sender.sentTitles())

	events, err := stor.GetEventsByUser(ctx, 1)
	require.NoError(t, err)
	for _, e := range events {
		switch e.ID {
		case failing.ID:
			require.False(t, e.Notified)
		case ok.ID:
			require.True(t, e.Notified)
		}
	}
}

func TestScannerSurvivesStorageFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2300, 1, 1, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}

	s := newTestScanner(&failingStorage{Storage: memorystorage.New()}, sender, now)
	require.NotPanics(t, func() { s.Scan(ctx) })
	require.Empty(t, sender.sentTitles())
}

func TestScannerResolvesGroupAnnotation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2300, 1, 1, 12, 0, 0, 0, time.UTC)
	stor := memorystorage.New()
	sender := &fakeSender{}

	g := storage.Group{ID: "group_1_1", Name: "family", OwnerID: 1, Members: []int64{2, 3}}
	require.NoError(t, stor.AddGroup(ctx, &g))
	e := addEvent(t, stor, "group event", now)
	e.GroupID = "group_1_1"
	require.NoError(t, stor.UpdateEvent(ctx, e.ID, 1, e))

	newTestScanner(stor, sender, now).Scan(ctx)

	require.Len(t, sender.sent, 1)
	// notifications go to the owner's chat, annotated with the group name
	require.Equal(t, int64(1), sender.sent[0].ChatID)
	require.Equal(t, "family", sender.sent[0].GroupName)
	require.Equal(t, "group_1_1", sender.sent[0].GroupID)
}

func TestScannerFallsBackOnDanglingGroup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2300, 1, 1, 12, 0, 0, 0, time.UTC)
	stor := memorystorage.New()
	sender := &fakeSender{}

	e := addEvent(t, stor, "orphaned event", now)
	e.GroupID = "group_9_9"
	require.NoError(t, stor.UpdateEvent(ctx, e.ID, 1, e))

	newTestScanner(stor, sender, now).Scan(ctx)

	require.Len(t, sender.sent, 1)
	require.Equal(t, int64(1), sender.sent[0].ChatID)
	require.Empty(t, sender.sent[0].GroupID)
	require.Empty(t, sender.sent[0].GroupName)
}

func TestScannerRunStopsOnCancel(t *testing.T) {
	stor := memorystorage.New()
	sender := &fakeSender{}
	s := NewScanner(stor, sender, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop after cancellation")
	}
}
