package game

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lastletter/lastletter/internal/history"
	"github.com/lastletter/lastletter/internal/models"
	"github.com/lastletter/lastletter/internal/random"
	"github.com/lastletter/lastletter/internal/store"
	"github.com/lastletter/lastletter/internal/words"
)

// DefaultTurnTimeout is how long a turn holder has to produce an accepted
// word before being eliminated.
const DefaultTurnTimeout = 15 * time.Second

// Engine owns the active-round state for every room: the chain word, the
// in-game player set, the rotating lap subset, the used-word set, and the
// single outstanding turn timer per room.
//
// Locking: Seed, AdvanceTurn, Eliminate and ClearRound assume the caller
// holds the room's lock. SubmitWord manages the lock itself because the
// dictionary lookup must happen outside the critical section. Timer expiry
// acquires the lock before touching any state.
type Engine struct {
	store     store.Store
	notifier  Notifier
	validator words.Validator
	rand      random.Random
	locks     *RoomLocks
	logger    *logrus.Logger
	publisher *history.Publisher // may be nil

	// TurnTimeout is the per-turn time limit. Tests shorten it.
	TurnTimeout time.Duration

	mu       sync.Mutex
	timers   map[string]*turnTimer
	timerGen uint64
}

// turnTimer is the single outstanding timer for a room. gen detects timers
// that fired after being superseded but before being stopped.
type turnTimer struct {
	timer *time.Timer
	gen   uint64
}

// NewEngine creates a Round Engine. publisher may be nil to disable round
// history.
func NewEngine(s store.Store, n Notifier, v words.Validator, r random.Random, locks *RoomLocks, logger *logrus.Logger, publisher *history.Publisher) *Engine {
	return &Engine{
		store:       s,
		notifier:    n,
		validator:   v,
		rand:        r,
		locks:       locks,
		logger:      logger,
		publisher:   publisher,
		TurnTimeout: DefaultTurnTimeout,
		timers:      make(map[string]*turnTimer),
	}
}

// Seed initializes round state for a room: empty chain word, in-game set =
// playerIDs, empty lap, empty used-word set, then hands out the first turn.
// Caller holds the room lock.
func (e *Engine) Seed(ctx context.Context, room string, playerIDs []string) error {
	for _, id := range playerIDs {
		if err := e.store.AddInGamePlayer(ctx, room, id); err != nil {
			return err
		}
	}
	if err := e.store.SaveRound(ctx, &models.Round{RoomName: room}); err != nil {
		return err
	}

	_, err := e.AdvanceTurn(ctx, room, "")
	return err
}

// AdvanceTurn cancels any pending timer, removes exclude from the lap subset,
// refills the lap from the in-game set if it drained (a new lap), picks the
// next turn holder uniformly at random from a stable enumeration of the lap,
// and starts a fresh turn timer. Returns the chosen player id. Caller holds
// the room lock.
func (e *Engine) AdvanceTurn(ctx context.Context, room, exclude string) (string, error) {
	e.cancelTimer(room)

	if exclude != "" {
		if err := e.store.RemoveLapPlayer(ctx, room, exclude); err != nil {
			return "", err
		}
	}

	n, err := e.store.LapCount(ctx, room)
	if err != nil {
		return "", err
	}
	if n == 0 {
		if err := e.store.RefillLap(ctx, room); err != nil {
			return "", err
		}
	}

	lap, err := e.store.LapPlayers(ctx, room)
	if err != nil {
		return "", err
	}
	if len(lap) == 0 {
		// No in-game players left to draw from; the round is being torn down.
		return "", nil
	}
	sort.Strings(lap)
	next := lap[e.rand.Intn(len(lap))]

	if err := e.store.RemoveLapPlayer(ctx, room, next); err != nil {
		return "", err
	}

	round, err := e.store.GetRound(ctx, room)
	if err != nil {
		return "", err
	}
	round.PlayerTurnID = next
	if err := e.store.SaveRound(ctx, round); err != nil {
		return "", err
	}

	name := next
	if p, err := e.store.GetPlayer(ctx, next); err == nil {
		name = p.Name
	}
	e.notifier.Broadcast(room, Event{Type: EventNextPlayer, PlayerID: next, Name: name})

	e.scheduleTimer(room, next)
	return next, nil
}

// SubmitWord handles a word submission. The dictionary lookup runs outside
// the room lock; afterwards the turn holder is re-checked so a result
// arriving after a concurrent timeout elimination is dropped as stale.
func (e *Engine) SubmitWord(ctx context.Context, room, playerID, rawWord string) error {
	word := words.Normalize(rawWord)

	unlock := e.locks.Lock(room)
	round, err := e.store.GetRound(ctx, room)
	if err != nil {
		unlock()
		if errors.Is(err, store.ErrNotFound) {
			return nil // no active round
		}
		return err
	}
	if round.PlayerTurnID != playerID {
		unlock()
		return nil // TurnViolation: dropped silently
	}
	unlock()

	// Suspension point: remote dictionary check, no lock held.
	valid := e.validator.IsValid(ctx, word)

	unlock = e.locks.Lock(room)
	defer unlock()

	round, err = e.store.GetRound(ctx, room)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil // round ended while we were suspended
		}
		return err
	}
	if round.PlayerTurnID != playerID {
		// The turn moved on (timeout elimination) during the lookup; the slow
		// submitter has missed their turn.
		e.logger.WithFields(logrus.Fields{
			"room":   room,
			"player": playerID,
			"word":   word,
		}).Debug("dropping stale submission result")
		return nil
	}

	// A submission with no letters normalizes to "", which must never reach
	// the chain check's byte indexing regardless of what the validator said.
	if word == "" || !valid {
		e.notifier.Broadcast(room, Event{Type: EventWrongWord, Word: word})
		return nil
	}

	if round.Word != "" {
		lastChar := round.Word[len(round.Word)-1]
		used, err := e.store.IsWordUsed(ctx, room, word)
		if err != nil {
			return err
		}
		if word[0] != lastChar || used {
			e.notifier.Send(playerID, Event{Type: EventWrongWord, Word: word})
			return nil
		}
	}

	if err := e.store.AddUsedWord(ctx, room, word); err != nil {
		return err
	}
	round.Word = word
	round.Words++
	if err := e.store.SaveRound(ctx, round); err != nil {
		return err
	}
	e.notifier.Broadcast(room, Event{Type: EventNewWord, Word: word})

	_, err = e.AdvanceTurn(ctx, room, playerID)
	return err
}

// Eliminate removes a player from the round, hands the turn to someone else,
// and ends the round if a single player remains. Idempotent: eliminating a
// player who is not in the in-game set is a no-op. Caller holds the room
// lock.
func (e *Engine) Eliminate(ctx context.Context, room, playerID string) error {
	inGame, err := e.store.IsInGame(ctx, room, playerID)
	if err != nil {
		return err
	}
	if !inGame {
		return nil
	}

	e.cancelTimer(room)

	if err := e.store.RemoveInGamePlayer(ctx, room, playerID); err != nil {
		return err
	}
	if err := e.store.RemoveLapPlayer(ctx, room, playerID); err != nil {
		return err
	}

	if p, err := e.store.GetPlayer(ctx, playerID); err == nil {
		p.Status = models.StatusEliminated
		if err := e.store.SavePlayer(ctx, p); err != nil {
			return err
		}
	}
	e.notifier.Broadcast(room, Event{
		Type:     EventPlayerStatusChanged,
		PlayerID: playerID,
		Status:   models.StatusEliminated,
	})

	// The turn always moves, even when the eliminated player was not the
	// current holder; only the remaining-one check below ends the round.
	if _, err := e.AdvanceTurn(ctx, room, playerID); err != nil {
		return err
	}

	n, err := e.store.InGameCount(ctx, room)
	if err != nil {
		return err
	}
	if n == 1 {
		return e.endRound(ctx, room)
	}
	return nil
}

// endRound announces the sole survivor, clears all round state, flips the
// room's game-started flag off, and resets every member to waiting. Caller
// holds the room lock.
func (e *Engine) endRound(ctx context.Context, room string) error {
	e.cancelTimer(room)

	survivors, err := e.store.InGamePlayers(ctx, room)
	if err != nil {
		return err
	}
	var winnerID, winnerName string
	if len(survivors) == 1 {
		winnerID = survivors[0]
		winnerName = winnerID
		if p, err := e.store.GetPlayer(ctx, winnerID); err == nil {
			winnerName = p.Name
		}
	}
	e.notifier.Broadcast(room, Event{Type: EventEndRound, PlayerID: winnerID})

	var wordCount int
	if round, err := e.store.GetRound(ctx, room); err == nil {
		wordCount = round.Words
	}

	if err := e.ClearRound(ctx, room); err != nil {
		return err
	}

	if r, err := e.store.GetRoom(ctx, room); err == nil {
		r.GameStarted = false
		if err := e.store.SaveRoom(ctx, r); err != nil {
			return err
		}
	}

	members, err := e.store.RoomMembers(ctx, room)
	if err != nil {
		return err
	}
	for _, id := range members {
		p, err := e.store.GetPlayer(ctx, id)
		if err != nil {
			continue
		}
		p.Status = models.StatusWaiting
		if err := e.store.SavePlayer(ctx, p); err != nil {
			return err
		}
	}

	if e.publisher != nil {
		rec := history.RoundResult{
			RoomName:   room,
			WinnerID:   winnerID,
			WinnerName: winnerName,
			Words:      wordCount,
			EndedAt:    time.Now().UnixMilli(),
		}
		if err := e.publisher.Publish(ctx, rec); err != nil {
			e.logger.WithError(err).WithField("room", room).Warn("failed to publish round result")
		}
	}
	return nil
}

// ClearRound deletes all round state for a room: in-game set, lap subset,
// used words, and the round record, plus any pending timer. Caller holds the
// room lock.
func (e *Engine) ClearRound(ctx context.Context, room string) error {
	e.cancelTimer(room)
	if err := e.store.DeleteInGamePlayers(ctx, room); err != nil {
		return err
	}
	if err := e.store.DeleteLap(ctx, room); err != nil {
		return err
	}
	if err := e.store.DeleteUsedWords(ctx, room); err != nil {
		return err
	}
	return e.store.DeleteRound(ctx, room)
}

// scheduleTimer starts the turn timer for holder. Any previously scheduled
// timer for this room becomes stale via the generation counter even if its
// callback is already racing for the room lock.
func (e *Engine) scheduleTimer(room, holder string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[room]; ok {
		t.timer.Stop()
	}
	// Generations are engine-global and never reused, so a callback from a
	// stopped timer can never match a later timer's entry.
	e.timerGen++
	gen := e.timerGen
	tt := &turnTimer{gen: gen}
	tt.timer = time.AfterFunc(e.TurnTimeout, func() {
		e.onTurnTimeout(room, holder, gen)
	})
	e.timers[room] = tt
}

// cancelTimer stops the pending timer for a room, if any.
func (e *Engine) cancelTimer(room string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.timers[room]; ok {
		t.timer.Stop()
		delete(e.timers, room)
	}
}

// onTurnTimeout runs when a turn timer fires: the holder failed to submit in
// time and is eliminated. The generation check drops callbacks whose timer
// was superseded between firing and acquiring the room lock.
func (e *Engine) onTurnTimeout(room, holder string, gen uint64) {
	unlock := e.locks.Lock(room)
	defer unlock()

	e.mu.Lock()
	t, ok := e.timers[room]
	if !ok || t.gen != gen {
		e.mu.Unlock()
		return
	}
	delete(e.timers, room)
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	e.logger.WithFields(logrus.Fields{
		"room":   room,
		"player": holder,
	}).Info("turn timed out, eliminating player")

	if err := e.Eliminate(ctx, room, holder); err != nil {
		e.logger.WithError(err).WithField("room", room).Error("timeout elimination failed")
	}
}
