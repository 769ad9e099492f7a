package app

import (
	"context"
	"fmt"
	"time"

	"github.com/okaralov/planner/internal/storage"
)

type App struct {
	Storage storage.Storage
}

func New(storage storage.Storage) *App {
	return &App{Storage: storage}
}

func (a *App) CreateEvent(ctx context.Context, e storage.Event) (int64, error) {
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return 0, err
	}
	return e.ID, nil
}

func (a *App) UpdateEvent(ctx context.Context, id int64, ownerID int64, e storage.Event) error {
	return a.Storage.UpdateEvent(ctx, id, ownerID, e)
}

func (a *App) RemoveEvent(ctx context.Context, id int64, ownerID int64) error {
	return a.Storage.RemoveEvent(ctx, id, ownerID)
}

func (a *App) GetEventsByUser(ctx context.Context, userID int64) ([]storage.Event, error) {
	return a.Storage.GetEventsByUser(ctx, userID)
}

func (a *App) GetEventsByGroup(ctx context.Context, groupID string) ([]storage.Event, error) {
	return a.Storage.GetEventsByGroup(ctx, groupID)
}

// CreateGroup derives the group ID from the owner and the creation moment.
func (a *App) CreateGroup(ctx context.Context, ownerID int64, name string, members []int64) (storage.Group, error) {
	g := storage.Group{
		ID:      fmt.Sprintf("group_%d_%d", ownerID, time.Now().UnixNano()),
		Name:    name,
		OwnerID: ownerID,
		Members: members,
	}
	if err := a.Storage.AddGroup(ctx, &g); err != nil {
		return storage.Group{}, err
	}
	return g, nil
}

func (a *App) UpdateGroup(ctx context.Context, id string, ownerID int64, g storage.Group) error {
	return a.Storage.UpdateGroup(ctx, id, ownerID, g)
}

func (a *App) RemoveGroup(ctx context.Context, id string, ownerID int64) error {
	return a.Storage.RemoveGroup(ctx, id, ownerID)
}

func (a *App) GetGroup(ctx context.Context, id string) (storage.Group, error) {
	return a.Storage.GetGroup(ctx, id)
}

func (a *App) GetGroupsByUser(ctx context.Context, userID int64) ([]storage.Group, error) {
	return a.Storage.GetGroupsByUser(ctx, userID)
}
