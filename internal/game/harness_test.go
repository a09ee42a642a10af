package game

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lastletter/lastletter/internal/random"
	"github.com/lastletter/lastletter/internal/store/memory"
)

// recordedEvent captures one notifier call. Target is the connection id for
// sends and the room name for broadcasts.
type recordedEvent struct {
	kind   string // "send" or "broadcast"
	target string
	ev     Event
}

// recordingNotifier collects every notifier call so tests can assert on the
// exact event sequence. Safe for use from timer goroutines.
type recordingNotifier struct {
	mu      sync.Mutex
	events  []recordedEvent
	members map[string]map[string]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{members: make(map[string]map[string]bool)}
}

func (r *recordingNotifier) Send(connID string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "send", target: connID, ev: ev})
}

func (r *recordingNotifier) Broadcast(room string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "broadcast", target: room, ev: ev})
}

func (r *recordingNotifier) JoinGroup(room, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[room] == nil {
		r.members[room] = make(map[string]bool)
	}
	r.members[room][connID] = true
}

func (r *recordingNotifier) LeaveGroup(room, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[room], connID)
}

// all returns a snapshot of every recorded call.
func (r *recordingNotifier) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ofType returns every recorded event of the given type, in order.
func (r *recordingNotifier) ofType(t EventType) []recordedEvent {
	var out []recordedEvent
	for _, rec := range r.all() {
		if rec.ev.Type == t {
			out = append(out, rec)
		}
	}
	return out
}

// last returns the most recent event of the given type, or a zero record.
func (r *recordingNotifier) last(t EventType) (recordedEvent, bool) {
	evs := r.ofType(t)
	if len(evs) == 0 {
		return recordedEvent{}, false
	}
	return evs[len(evs)-1], true
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recordingNotifier) inGroup(room, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[room][connID]
}

// allowAllValidator accepts every word except those listed in reject. hook,
// when set, runs inside the lookup and may block, letting tests hold a
// submission suspended at the dictionary call.
type allowAllValidator struct {
	reject map[string]bool
	hook   func(word string)
}

func (v *allowAllValidator) IsValid(_ context.Context, word string) bool {
	if v.hook != nil {
		v.hook(word)
	}
	return !v.reject[word]
}

// fixture bundles a fully wired game stack over the in-memory store.
type fixture struct {
	store     *memory.Store
	notifier  *recordingNotifier
	rand      *random.Mock
	locks     *RoomLocks
	engine    *Engine
	registry  *Registry
	dir       *Directory
	orch      *Orchestrator
	validator *allowAllValidator
	reject    map[string]bool
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st := memory.New()
	notifier := newRecordingNotifier()
	rnd := &random.Mock{}
	locks := NewRoomLocks()
	reject := make(map[string]bool)
	validator := &allowAllValidator{reject: reject}

	engine := NewEngine(st, notifier, validator, rnd, locks, logger, nil)
	engine.TurnTimeout = time.Hour // tests that exercise timeouts shorten this

	registry := NewRegistry(st)
	dir := NewDirectory(st, notifier, engine, logger)
	orch := NewOrchestrator(registry, dir, engine, st, notifier, locks, logger)

	return &fixture{
		store:     st,
		notifier:  notifier,
		rand:      rnd,
		locks:     locks,
		engine:    engine,
		registry:  registry,
		dir:       dir,
		orch:      orch,
		validator: validator,
		reject:    reject,
	}
}

// startedRoom registers the given players, puts them in a room, and starts a
// round with a deterministic first turn (lowest id first thanks to the mock
// random defaulting to 0).
func (f *fixture) startedRoom(ctx context.Context, room string, players ...string) {
	for _, id := range players {
		f.orch.Connect(ctx, id)
	}
	f.orch.CreateRoom(ctx, players[0], room, "")
	for _, id := range players[1:] {
		f.orch.JoinRoom(ctx, id, room, "")
	}
	for _, id := range players {
		f.orch.ReadyToggle(ctx, id)
	}
	f.notifier.reset()
}
