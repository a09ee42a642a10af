// Package memory provides an in-memory store.Store used by tests and by
// single-process deployments that do not need Redis.
package memory

import (
	"context"
	"sync"

	"github.com/lastletter/lastletter/internal/models"
	"github.com/lastletter/lastletter/internal/store"
)

// Store is a map-backed implementation of store.Store. Safe for concurrent
// use; every operation takes the store mutex.
type Store struct {
	mu sync.Mutex

	players   map[string]models.Player
	rooms     map[string]models.Room
	roomNames map[string]struct{}
	members   map[string]map[string]struct{}
	rounds    map[string]models.Round
	inGame    map[string]map[string]struct{}
	lap       map[string]map[string]struct{}
	usedWords map[string]map[string]struct{}
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		players:   make(map[string]models.Player),
		rooms:     make(map[string]models.Room),
		roomNames: make(map[string]struct{}),
		members:   make(map[string]map[string]struct{}),
		rounds:    make(map[string]models.Round),
		inGame:    make(map[string]map[string]struct{}),
		lap:       make(map[string]map[string]struct{}),
		usedWords: make(map[string]map[string]struct{}),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) SavePlayer(_ context.Context, p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = *p
	return nil
}

func (s *Store) GetPlayer(_ context.Context, id string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) DeletePlayer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

func (s *Store) SaveRoom(_ context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.Name] = *r
	return nil
}

func (s *Store) GetRoom(_ context.Context, name string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) DeleteRoom(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, name)
	return nil
}

func (s *Store) AddRoomName(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomNames[name] = struct{}{}
	return nil
}

func (s *Store) RemoveRoomName(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roomNames, name)
	return nil
}

func (s *Store) RoomNameExists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.roomNames[name]
	return ok, nil
}

func (s *Store) AddRoomMember(_ context.Context, room, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addToSet(s.members, room, playerID)
	return nil
}

func (s *Store) RemoveRoomMember(_ context.Context, room, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removeFromSet(s.members, room, playerID)
	return nil
}

func (s *Store) RoomMembers(_ context.Context, room string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setMembers(s.members, room), nil
}

func (s *Store) DeleteRoomMembers(_ context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, room)
	return nil
}

func (s *Store) SaveRound(_ context.Context, r *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[r.RoomName] = *r
	return nil
}

func (s *Store) GetRound(_ context.Context, room string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[room]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) DeleteRound(_ context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, room)
	return nil
}

func (s *Store) AddInGamePlayer(_ context.Context, room, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addToSet(s.inGame, room, playerID)
	return nil
}

func (s *Store) RemoveInGamePlayer(_ context.Context, room, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removeFromSet(s.inGame, room, playerID)
	return nil
}

func (s *Store) InGamePlayers(_ context.Context, room string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setMembers(s.inGame, room), nil
}

func (s *Store) InGameCount(_ context.Context, room string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inGame[room]), nil
}

func (s *Store) IsInGame(_ context.Context, room, playerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inGame[room][playerID]
	return ok, nil
}

func (s *Store) DeleteInGamePlayers(_ context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inGame, room)
	return nil
}

func (s *Store) RemoveLapPlayer(_ context.Context, room, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removeFromSet(s.lap, room, playerID)
	return nil
}

func (s *Store) LapPlayers(_ context.Context, room string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setMembers(s.lap, room), nil
}

func (s *Store) LapCount(_ context.Context, room string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lap[room]), nil
}

func (s *Store) RefillLap(_ context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := make(map[string]struct{}, len(s.inGame[room]))
	for id := range s.inGame[room] {
		fresh[id] = struct{}{}
	}
	s.lap[room] = fresh
	return nil
}

func (s *Store) DeleteLap(_ context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lap, room)
	return nil
}

func (s *Store) AddUsedWord(_ context.Context, room, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addToSet(s.usedWords, room, word)
	return nil
}

func (s *Store) IsWordUsed(_ context.Context, room, word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.usedWords[room][word]
	return ok, nil
}

func (s *Store) DeleteUsedWords(_ context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.usedWords, room)
	return nil
}

func addToSet(sets map[string]map[string]struct{}, key, member string) {
	set, ok := sets[key]
	if !ok {
		set = make(map[string]struct{})
		sets[key] = set
	}
	set[member] = struct{}{}
}

func removeFromSet(sets map[string]map[string]struct{}, key, member string) {
	if set, ok := sets[key]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(sets, key)
		}
	}
}

func setMembers(sets map[string]map[string]struct{}, key string) []string {
	set := sets[key]
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	return out
}
