package game

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/lastletter/lastletter/internal/models"
	"github.com/lastletter/lastletter/internal/store"
)

// Registry tracks every connected identity. A player record exists from
// connection to disconnection; Unregister must only be called after any room
// membership has been fully unwound.
type Registry struct {
	store store.Store
}

// NewRegistry creates a Registry over the given store.
func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// Register creates a player for a fresh connection. The display name defaults
// to the connection identity.
func (r *Registry) Register(ctx context.Context, id string) error {
	return r.store.SavePlayer(ctx, &models.Player{
		ID:     id,
		Name:   id,
		Status: models.StatusWaiting,
	})
}

// Unregister removes the player record.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	return r.store.DeletePlayer(ctx, id)
}

// Get returns the player record for id.
func (r *Registry) Get(ctx context.Context, id string) (*models.Player, error) {
	return r.store.GetPlayer(ctx, id)
}

// Rename updates the display name and returns the player's current room name
// so the caller can decide whether to broadcast. Fails with ErrNameTooShort
// if the trimmed name is under 3 characters.
func (r *Registry) Rename(ctx context.Context, id, newName string) (string, error) {
	newName = strings.TrimSpace(newName)
	if utf8.RuneCountInString(newName) < 3 {
		return "", ErrNameTooShort
	}

	p, err := r.store.GetPlayer(ctx, id)
	if err != nil {
		return "", err
	}
	p.Name = newName
	if err := r.store.SavePlayer(ctx, p); err != nil {
		return "", err
	}
	return p.RoomName, nil
}

// SetStatus updates a player's status.
func (r *Registry) SetStatus(ctx context.Context, id string, status models.PlayerStatus) error {
	p, err := r.store.GetPlayer(ctx, id)
	if err != nil {
		return err
	}
	p.Status = status
	return r.store.SavePlayer(ctx, p)
}
