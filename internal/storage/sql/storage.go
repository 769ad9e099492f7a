package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/okaralov/planner/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrUniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	event_time TIMESTAMPTZ NOT NULL,
	reminder_time TIMESTAMPTZ NOT NULL,
	group_id TEXT NOT NULL DEFAULT '',
	notified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS groups (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	owner_id BIGINT NOT NULL,
	members BIGINT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const eventColumns = "id, user_id, title, description, event_time, reminder_time, group_id, notified, created_at"

type Config struct {
	DSN string
}

type Storage struct {
	dsn string
	db  *sqlx.DB
}

type groupRow struct {
	ID        string        `db:"id"`
	Name      string        `db:"name"`
	OwnerID   int64         `db:"owner_id"`
	Members   pq.Int64Array `db:"members"`
	CreatedAt time.Time     `db:"created_at"`
}

func New(config Config) *Storage {
	return &Storage{dsn: config.DSN}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, "postgres", s.dsn)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// Migrate creates the tables if they do not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	return s.db.QueryRowxContext(
		ctx,
		"INSERT INTO events(user_id, title, description, event_time, reminder_time, group_id) "+
			"VALUES($1, $2, $3, $4, $5, $6) RETURNING id, created_at",
		e.OwnerID, e.Title, e.Description, e.EventTime.UTC(), e.ReminderTime.UTC(), e.GroupID,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *Storage) UpdateEvent(ctx context.Context, id int64, ownerID int64, e storage.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		"UPDATE events SET title=$3, description=$4, event_time=$5, reminder_time=$6, group_id=$7 "+
			"WHERE id=$1 AND user_id=$2 RETURNING TRUE",
		id, ownerID, e.Title, e.Description, e.EventTime.UTC(), e.ReminderTime.UTC(), e.GroupID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update event with id %d: %w", id, storage.ErrNotFound)
	}
	return err
}

func (s *Storage) RemoveEvent(ctx context.Context, id int64, ownerID int64) error {
	var found bool
	err := s.db.GetContext(ctx, &found, "DELETE FROM events WHERE id=$1 AND user_id=$2 RETURNING TRUE", id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to remove event with id %d: %w", id, storage.ErrNotFound)
	}
	return err
}

func (s *Storage) GetEventsByUser(ctx context.Context, userID int64) ([]storage.Event, error) {
	var events []storage.Event
	err := s.db.SelectContext(
		ctx,
		&events,
		"SELECT "+eventColumns+" FROM events WHERE user_id=$1 ORDER BY event_time",
		userID,
	)
	return events, err
}

func (s *Storage) GetEventsByGroup(ctx context.Context, groupID string) ([]storage.Event, error) {
	var events []storage.Event
	err := s.db.SelectContext(
		ctx,
		&events,
		"SELECT "+eventColumns+" FROM events WHERE group_id=$1 ORDER BY event_time",
		groupID,
	)
	return events, err
}

// Select in range (from:to].
func (s *Storage) GetDueReminders(ctx context.Context, from time.Time, to time.Time) ([]storage.Event, error) {
	var events []storage.Event
	err := s.db.SelectContext(
		ctx,
		&events,
		"SELECT "+eventColumns+" FROM events WHERE NOT notified AND reminder_time>$1 AND reminder_time<=$2",
		from.UTC(),
		to.UTC(),
	)
	return events, err
}

func (s *Storage) MarkNotified(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE events SET notified=TRUE WHERE id=$1 AND NOT notified", id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM events WHERE id=$1)", id); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("failed to mark event with id %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Storage) AddGroup(ctx context.Context, g *storage.Group) error {
	if err := g.Validate(); err != nil {
		return err
	}

	g.Members = storage.NormalizeMembers(g.OwnerID, g.Members)
	err := s.db.QueryRowxContext(
		ctx,
		"INSERT INTO groups(id, name, owner_id, members) VALUES($1, $2, $3, $4) RETURNING created_at",
		g.ID, g.Name, g.OwnerID, pq.Int64Array(g.Members),
	).Scan(&g.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("duplicate ID %q: %w", g.ID, storage.ErrDuplicateGroupID)
	}
	return err
}

func (s *Storage) UpdateGroup(ctx context.Context, id string, ownerID int64, g storage.Group) error {
	if err := g.Validate(); err != nil {
		return err
	}

	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		"UPDATE groups SET name=$3, members=$4 WHERE id=$1 AND owner_id=$2 RETURNING TRUE",
		id, ownerID, g.Name, pq.Int64Array(storage.NormalizeMembers(ownerID, g.Members)),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update group with id %q: %w", id, storage.ErrNotFound)
	}
	return err
}

func (s *Storage) RemoveGroup(ctx context.Context, id string, ownerID int64) error {
	var found bool
	err := s.db.GetContext(ctx, &found, "DELETE FROM groups WHERE id=$1 AND owner_id=$2 RETURNING TRUE", id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to remove group with id %q: %w", id, storage.ErrNotFound)
	}
	return err
}

func (s *Storage) GetGroup(ctx context.Context, id string) (storage.Group, error) {
	var row groupRow
	err := s.db.GetContext(
		ctx,
		&row,
		"SELECT id, name, owner_id, members, created_at FROM groups WHERE id=$1",
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Group{}, fmt.Errorf("failed to get group with id %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Group{}, err
	}
	return toGroup(row), nil
}

func (s *Storage) GetGroupsByUser(ctx context.Context, userID int64) ([]storage.Group, error) {
	var rows []groupRow
	err := s.db.SelectContext(
		ctx,
		&rows,
		"SELECT id, name, owner_id, members, created_at FROM groups WHERE $1 = ANY(members) ORDER BY created_at",
		userID,
	)
	if err != nil {
		return nil, err
	}
	groups := make([]storage.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, toGroup(row))
	}
	return groups, nil
}

func toGroup(row groupRow) storage.Group {
	return storage.Group{
		ID:        row.ID,
		Name:      row.Name,
		OwnerID:   row.OwnerID,
		Members:   row.Members,
		CreatedAt: row.CreatedAt,
	}
}
