package store

import (
	"context"
	"errors"

	"github.com/lastletter/lastletter/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the durable key/value collaborator behind the game core. It
// provides hash/record storage per entity plus the set-membership collections
// the round logic needs. Individual operations are atomic; multi-step
// sequences are serialized by the per-room locking in the game package, not
// by the store.
type Store interface {
	// Player records.
	SavePlayer(ctx context.Context, p *models.Player) error
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	DeletePlayer(ctx context.Context, id string) error

	// Room records and the global room-name set.
	SaveRoom(ctx context.Context, r *models.Room) error
	GetRoom(ctx context.Context, name string) (*models.Room, error)
	DeleteRoom(ctx context.Context, name string) error
	AddRoomName(ctx context.Context, name string) error
	RemoveRoomName(ctx context.Context, name string) error
	RoomNameExists(ctx context.Context, name string) (bool, error)

	// Room membership set.
	AddRoomMember(ctx context.Context, room, playerID string) error
	RemoveRoomMember(ctx context.Context, room, playerID string) error
	RoomMembers(ctx context.Context, room string) ([]string, error)
	DeleteRoomMembers(ctx context.Context, room string) error

	// Round record.
	SaveRound(ctx context.Context, r *models.Round) error
	GetRound(ctx context.Context, room string) (*models.Round, error)
	DeleteRound(ctx context.Context, room string) error

	// In-game player set (players not yet eliminated this round).
	AddInGamePlayer(ctx context.Context, room, playerID string) error
	RemoveInGamePlayer(ctx context.Context, room, playerID string) error
	InGamePlayers(ctx context.Context, room string) ([]string, error)
	InGameCount(ctx context.Context, room string) (int, error)
	IsInGame(ctx context.Context, room, playerID string) (bool, error)
	DeleteInGamePlayers(ctx context.Context, room string) error

	// Current-lap subset. RefillLap replaces the lap set with a copy of the
	// in-game set (a new lap begins).
	RemoveLapPlayer(ctx context.Context, room, playerID string) error
	LapPlayers(ctx context.Context, room string) ([]string, error)
	LapCount(ctx context.Context, room string) (int, error)
	RefillLap(ctx context.Context, room string) error
	DeleteLap(ctx context.Context, room string) error

	// Used-word set for the active round.
	AddUsedWord(ctx context.Context, room, word string) error
	IsWordUsed(ctx context.Context, room, word string) (bool, error)
	DeleteUsedWords(ctx context.Context, room string) error
}
