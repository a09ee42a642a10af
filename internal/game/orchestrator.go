package game

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lastletter/lastletter/internal/models"
	"github.com/lastletter/lastletter/internal/store"
)

// Orchestrator is the entry point for inbound player actions. It owns no
// state of its own: it checks preconditions that span components, wraps every
// room-touching sequence in that room's lock, and converts component failures
// into error events for the originator.
type Orchestrator struct {
	registry  *Registry
	directory *Directory
	engine    *Engine
	store     store.Store
	notifier  Notifier
	locks     *RoomLocks
	logger    *logrus.Logger
}

// NewOrchestrator wires the orchestrator. locks must be the same RoomLocks
// instance the engine uses for its timer callbacks.
func NewOrchestrator(reg *Registry, dir *Directory, eng *Engine, s store.Store, n Notifier, locks *RoomLocks, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		registry:  reg,
		directory: dir,
		engine:    eng,
		store:     s,
		notifier:  n,
		locks:     locks,
		logger:    logger,
	}
}

// Connect registers a fresh connection identity.
func (o *Orchestrator) Connect(ctx context.Context, connID string) {
	if err := o.registry.Register(ctx, connID); err != nil {
		o.logger.WithError(err).WithField("conn", connID).Error("failed to register player")
		return
	}
	o.logger.WithField("conn", connID).Info("player connected")
}

// Disconnect unwinds a connection: the same leave path a voluntary leave
// runs (including mid-round elimination), then registry removal.
func (o *Orchestrator) Disconnect(ctx context.Context, connID string) {
	o.LeaveRoom(ctx, connID)
	if err := o.registry.Unregister(ctx, connID); err != nil {
		o.logger.WithError(err).WithField("conn", connID).Error("failed to unregister player")
	}
	o.logger.WithField("conn", connID).Info("player disconnected")
}

// CreateRoom creates a room and joins the creator to it.
func (o *Orchestrator) CreateRoom(ctx context.Context, connID, name, password string) {
	name = strings.TrimSpace(name)
	unlock := o.locks.Lock(name)
	defer unlock()

	if err := o.directory.CreateRoom(ctx, connID, name, password); err != nil {
		o.reportError(connID, err)
		return
	}
	if err := o.directory.JoinRoom(ctx, connID, name, password); err != nil {
		o.reportError(connID, err)
	}
}

// JoinRoom joins an existing room.
func (o *Orchestrator) JoinRoom(ctx context.Context, connID, name, password string) {
	name = strings.TrimSpace(name)
	unlock := o.locks.Lock(name)
	defer unlock()

	if err := o.directory.JoinRoom(ctx, connID, name, password); err != nil {
		o.reportError(connID, err)
	}
}

// LeaveRoom leaves the player's current room, if any.
func (o *Orchestrator) LeaveRoom(ctx context.Context, connID string) {
	room := o.currentRoom(ctx, connID)
	if room == "" {
		return
	}

	unlock := o.locks.Lock(room)
	defer unlock()

	// Re-check under the lock; a concurrent action may have moved the player.
	p, err := o.store.GetPlayer(ctx, connID)
	if err != nil || p.RoomName != room {
		return
	}
	if _, err := o.directory.LeaveRoom(ctx, connID); err != nil {
		o.logger.WithError(err).WithFields(logrus.Fields{
			"conn": connID,
			"room": room,
		}).Error("leave room failed")
	}
}

// ChangeName renames the player and notifies their room, if they are in one.
func (o *Orchestrator) ChangeName(ctx context.Context, connID, name string) {
	room, err := o.registry.Rename(ctx, connID, name)
	if err != nil {
		o.reportError(connID, err)
		return
	}
	if room != "" {
		p, err := o.registry.Get(ctx, connID)
		if err != nil {
			return
		}
		o.notifier.Broadcast(room, Event{Type: EventPlayerNameChanged, PlayerID: connID, Name: p.Name})
	}
}

// ReadyToggle flips the player between waiting and ready. Going ready may
// start the round.
func (o *Orchestrator) ReadyToggle(ctx context.Context, connID string) {
	room := o.currentRoom(ctx, connID)
	if room == "" {
		o.reportError(connID, ErrNotInRoom)
		return
	}

	unlock := o.locks.Lock(room)
	defer unlock()

	p, err := o.store.GetPlayer(ctx, connID)
	if err != nil || p.RoomName != room {
		return
	}
	roomRec, err := o.store.GetRoom(ctx, room)
	if err != nil {
		return
	}
	if roomRec.GameStarted {
		return
	}

	if p.Status == models.StatusWaiting {
		p.Status = models.StatusReady
	} else {
		p.Status = models.StatusWaiting
	}
	if err := o.store.SavePlayer(ctx, p); err != nil {
		o.logger.WithError(err).WithField("conn", connID).Error("ready toggle failed")
		return
	}
	o.notifier.Broadcast(room, Event{Type: EventPlayerReady, PlayerID: connID, Status: p.Status})

	if p.Status == models.StatusReady {
		if err := o.directory.TryStartRound(ctx, room); err != nil {
			o.reportError(connID, err)
		}
	}
}

// SubmitWord forwards a word submission to the engine. The engine does its
// own locking because the dictionary lookup is a suspension point.
func (o *Orchestrator) SubmitWord(ctx context.Context, connID, word string) {
	room := o.currentRoom(ctx, connID)
	if room == "" {
		return
	}
	if err := o.engine.SubmitWord(ctx, room, connID, word); err != nil {
		o.logger.WithError(err).WithFields(logrus.Fields{
			"conn": connID,
			"room": room,
		}).Error("submit word failed")
	}
}

// currentRoom returns the player's room name, or empty.
func (o *Orchestrator) currentRoom(ctx context.Context, connID string) string {
	p, err := o.store.GetPlayer(ctx, connID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			o.logger.WithError(err).WithField("conn", connID).Error("player lookup failed")
		}
		return ""
	}
	return p.RoomName
}

// reportError converts a component failure into an error event for the
// originator. Unexpected failures are logged and reported generically.
func (o *Orchestrator) reportError(connID string, err error) {
	switch {
	case errors.Is(err, ErrNameTooShort),
		errors.Is(err, ErrRoomNameTooShort),
		errors.Is(err, ErrAlreadyInRoom),
		errors.Is(err, ErrRoomExists),
		errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrNotInRoom),
		errors.Is(err, ErrNotEnoughPlayers):
		o.notifier.Send(connID, Event{Type: EventError, Message: err.Error()})
	default:
		o.logger.WithError(err).WithField("conn", connID).Error("action failed")
		o.notifier.Send(connID, Event{Type: EventError, Message: "internal error"})
	}
}
