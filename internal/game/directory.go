package game

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/lastletter/lastletter/internal/auth"
	"github.com/lastletter/lastletter/internal/models"
	"github.com/lastletter/lastletter/internal/store"
)

// LeaveResult reports what happened to a room after a member left.
type LeaveResult int

const (
	// RoomContinues: the room still exists with at least 2 members.
	RoomContinues LeaveResult = iota
	// RoomDeleted: membership dropped to 1 or below and the room was torn
	// down, round state included.
	RoomDeleted
)

// Directory tracks the set of existing rooms: membership, leadership,
// passwords, and the game-started flag. All methods assume the caller holds
// the room's lock.
type Directory struct {
	store    store.Store
	notifier Notifier
	engine   *Engine
	logger   *logrus.Logger
}

// NewDirectory creates a Directory.
func NewDirectory(s store.Store, n Notifier, e *Engine, logger *logrus.Logger) *Directory {
	return &Directory{store: s, notifier: n, engine: e, logger: logger}
}

// CreateRoom registers a new room with the creator as leader. The creator
// does not become a member here; JoinRoom runs right after, exactly once.
func (d *Directory) CreateRoom(ctx context.Context, leaderID, name, password string) error {
	name = strings.TrimSpace(name)
	password = strings.TrimSpace(password)

	if utf8.RuneCountInString(name) < 3 {
		return ErrRoomNameTooShort
	}

	leader, err := d.store.GetPlayer(ctx, leaderID)
	if err != nil {
		return err
	}
	if leader.RoomName != "" {
		return ErrAlreadyInRoom
	}

	exists, err := d.store.RoomNameExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return ErrRoomExists
	}

	var hash string
	if password != "" {
		hash, err = auth.CreateHash(password, auth.Params)
		if err != nil {
			return err
		}
	}

	if err := d.store.AddRoomName(ctx, name); err != nil {
		return err
	}
	if err := d.store.SaveRoom(ctx, &models.Room{
		Name:         name,
		PasswordHash: hash,
		LeaderID:     leaderID,
	}); err != nil {
		return err
	}

	d.logger.WithField("room", name).Info("room created")
	return nil
}

// JoinRoom adds a player to a room after password verification. Existing
// members get a single join notice; the joiner gets a per-member snapshot
// that includes itself, so every observer sees the joiner appear exactly
// once.
func (d *Directory) JoinRoom(ctx context.Context, playerID, name, password string) error {
	name = strings.TrimSpace(name)
	password = strings.TrimSpace(password)

	p, err := d.store.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if p.RoomName != "" {
		return ErrAlreadyInRoom
	}

	exists, err := d.store.RoomNameExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotFound
	}

	room, err := d.store.GetRoom(ctx, name)
	if err != nil {
		return err
	}
	if password != "" || room.PasswordHash != "" {
		if room.PasswordHash == "" {
			return ErrInvalidPassword
		}
		match, err := auth.ComparePasswordAndHash(password, room.PasswordHash)
		if err != nil || !match {
			return ErrInvalidPassword
		}
	}

	if err := d.store.AddRoomMember(ctx, name, playerID); err != nil {
		return err
	}
	p.RoomName = name
	p.Status = models.StatusWaiting
	if err := d.store.SavePlayer(ctx, p); err != nil {
		return err
	}

	// Join notice to existing members first, then add the joiner to the
	// group, then replay the member snapshot to the joiner alone.
	d.notifier.Broadcast(name, Event{Type: EventJoinedRoom, PlayerID: playerID, Name: p.Name})
	d.notifier.JoinGroup(name, playerID)

	members, err := d.store.RoomMembers(ctx, name)
	if err != nil {
		return err
	}
	sort.Strings(members)
	for _, id := range members {
		member, err := d.store.GetPlayer(ctx, id)
		if err != nil {
			continue
		}
		d.notifier.Send(playerID, Event{Type: EventJoinedRoom, PlayerID: id, Name: member.Name})
		d.notifier.Send(playerID, Event{Type: EventPlayerStatusChanged, PlayerID: id, Status: member.Status})
	}
	return nil
}

// LeaveRoom removes a player from their current room. A player who is
// in-game is eliminated first so round invariants update before membership
// changes. When the remaining membership is 1 or less the room is deleted
// outright, round state and all.
func (d *Directory) LeaveRoom(ctx context.Context, playerID string) (LeaveResult, error) {
	p, err := d.store.GetPlayer(ctx, playerID)
	if err != nil {
		return RoomContinues, err
	}
	room := p.RoomName
	if room == "" {
		return RoomContinues, nil
	}

	inGame, err := d.store.IsInGame(ctx, room, playerID)
	if err != nil {
		return RoomContinues, err
	}
	if inGame {
		if err := d.engine.Eliminate(ctx, room, playerID); err != nil {
			return RoomContinues, err
		}
	}

	if err := d.store.RemoveRoomMember(ctx, room, playerID); err != nil {
		return RoomContinues, err
	}
	d.notifier.LeaveGroup(room, playerID)
	d.notifier.Broadcast(room, Event{Type: EventLeftRoom, PlayerID: playerID})

	// Re-read: elimination above may have already reset the leaver to
	// waiting; either way the record leaves the room here.
	if p, err = d.store.GetPlayer(ctx, playerID); err == nil {
		p.RoomName = ""
		p.Status = models.StatusWaiting
		if err := d.store.SavePlayer(ctx, p); err != nil {
			return RoomContinues, err
		}
	}

	members, err := d.store.RoomMembers(ctx, room)
	if err != nil {
		return RoomContinues, err
	}
	if len(members) <= 1 {
		if err := d.deleteRoom(ctx, room, members); err != nil {
			return RoomDeleted, err
		}
		return RoomDeleted, nil
	}

	roomRec, err := d.store.GetRoom(ctx, room)
	if err != nil {
		return RoomContinues, err
	}
	if roomRec.LeaderID == playerID {
		sort.Strings(members)
		roomRec.LeaderID = members[0]
		if err := d.store.SaveRoom(ctx, roomRec); err != nil {
			return RoomContinues, err
		}
	}
	return RoomContinues, nil
}

// deleteRoom tears a room down entirely: round state, membership, record,
// and name registration. Any straggler member is reset to a roomless waiting
// state.
func (d *Directory) deleteRoom(ctx context.Context, room string, stragglers []string) error {
	if err := d.engine.ClearRound(ctx, room); err != nil {
		return err
	}

	for _, id := range stragglers {
		d.notifier.LeaveGroup(room, id)
		p, err := d.store.GetPlayer(ctx, id)
		if err != nil {
			continue
		}
		p.RoomName = ""
		p.Status = models.StatusWaiting
		if err := d.store.SavePlayer(ctx, p); err != nil {
			return err
		}
	}

	if err := d.store.DeleteRoomMembers(ctx, room); err != nil {
		return err
	}
	if err := d.store.DeleteRoom(ctx, room); err != nil {
		return err
	}
	if err := d.store.RemoveRoomName(ctx, room); err != nil {
		return err
	}

	d.logger.WithField("room", room).Info("room deleted")
	return nil
}

// TryStartRound starts a round when the room has at least 2 members and all
// of them are ready. Too few members is a reportable precondition failure;
// not-everyone-ready is a silent no-op.
func (d *Directory) TryStartRound(ctx context.Context, room string) error {
	members, err := d.store.RoomMembers(ctx, room)
	if err != nil {
		return err
	}
	if len(members) < 2 {
		return ErrNotEnoughPlayers
	}

	for _, id := range members {
		p, err := d.store.GetPlayer(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != models.StatusReady {
			return nil
		}
	}

	roomRec, err := d.store.GetRoom(ctx, room)
	if err != nil {
		return err
	}
	roomRec.GameStarted = true
	if err := d.store.SaveRoom(ctx, roomRec); err != nil {
		return err
	}

	for _, id := range members {
		p, err := d.store.GetPlayer(ctx, id)
		if err != nil {
			return err
		}
		p.Status = models.StatusPlaying
		if err := d.store.SavePlayer(ctx, p); err != nil {
			return err
		}
	}

	d.notifier.Broadcast(room, Event{Type: EventStartRound})
	d.logger.WithField("room", room).Info("round started")

	return d.engine.Seed(ctx, room, members)
}
