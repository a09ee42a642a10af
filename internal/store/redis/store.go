// Package redis provides the Redis-backed store.Store implementation.
// Entity records are JSON strings; memberships (room names, room members,
// in-game players, lap subset, used words) are native Redis sets.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lastletter/lastletter/internal/models"
	"github.com/lastletter/lastletter/internal/store"
)

// Store is a Redis-backed implementation of store.Store.
type Store struct {
	client *redis.Client
}

// New connects to Redis at addr (database dbIdx) and verifies the connection
// with a bounded ping.
func New(addr string, dbIdx int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client (used by tests).
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Client exposes the underlying connection for collaborators that share the
// same Redis instance, such as the round-result queue.
func (s *Store) Client() *redis.Client {
	return s.client
}

var _ store.Store = (*Store)(nil)

func (s *Store) SavePlayer(ctx context.Context, p *models.Player) error {
	return s.saveJSON(ctx, playerKey(p.ID), p)
}

func (s *Store) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	var p models.Player
	if err := s.getJSON(ctx, playerKey(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePlayer(ctx context.Context, id string) error {
	return s.client.Del(ctx, playerKey(id)).Err()
}

func (s *Store) SaveRoom(ctx context.Context, r *models.Room) error {
	return s.saveJSON(ctx, roomKey(r.Name), roomRecord{
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		LeaderID:     r.LeaderID,
		GameStarted:  r.GameStarted,
	})
}

func (s *Store) GetRoom(ctx context.Context, name string) (*models.Room, error) {
	var rec roomRecord
	if err := s.getJSON(ctx, roomKey(name), &rec); err != nil {
		return nil, err
	}
	return &models.Room{
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
		LeaderID:     rec.LeaderID,
		GameStarted:  rec.GameStarted,
	}, nil
}

func (s *Store) DeleteRoom(ctx context.Context, name string) error {
	return s.client.Del(ctx, roomKey(name)).Err()
}

func (s *Store) AddRoomName(ctx context.Context, name string) error {
	return s.client.SAdd(ctx, roomNamesKey(), name).Err()
}

func (s *Store) RemoveRoomName(ctx context.Context, name string) error {
	return s.client.SRem(ctx, roomNamesKey(), name).Err()
}

func (s *Store) RoomNameExists(ctx context.Context, name string) (bool, error) {
	return s.client.SIsMember(ctx, roomNamesKey(), name).Result()
}

func (s *Store) AddRoomMember(ctx context.Context, room, playerID string) error {
	return s.client.SAdd(ctx, roomMembersKey(room), playerID).Err()
}

func (s *Store) RemoveRoomMember(ctx context.Context, room, playerID string) error {
	return s.client.SRem(ctx, roomMembersKey(room), playerID).Err()
}

func (s *Store) RoomMembers(ctx context.Context, room string) ([]string, error) {
	return s.client.SMembers(ctx, roomMembersKey(room)).Result()
}

func (s *Store) DeleteRoomMembers(ctx context.Context, room string) error {
	return s.client.Del(ctx, roomMembersKey(room)).Err()
}

func (s *Store) SaveRound(ctx context.Context, r *models.Round) error {
	return s.saveJSON(ctx, roundKey(r.RoomName), r)
}

func (s *Store) GetRound(ctx context.Context, room string) (*models.Round, error) {
	var r models.Round
	if err := s.getJSON(ctx, roundKey(room), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) DeleteRound(ctx context.Context, room string) error {
	return s.client.Del(ctx, roundKey(room)).Err()
}

func (s *Store) AddInGamePlayer(ctx context.Context, room, playerID string) error {
	return s.client.SAdd(ctx, inGameKey(room), playerID).Err()
}

func (s *Store) RemoveInGamePlayer(ctx context.Context, room, playerID string) error {
	return s.client.SRem(ctx, inGameKey(room), playerID).Err()
}

func (s *Store) InGamePlayers(ctx context.Context, room string) ([]string, error) {
	return s.client.SMembers(ctx, inGameKey(room)).Result()
}

func (s *Store) InGameCount(ctx context.Context, room string) (int, error) {
	n, err := s.client.SCard(ctx, inGameKey(room)).Result()
	return int(n), err
}

func (s *Store) IsInGame(ctx context.Context, room, playerID string) (bool, error) {
	return s.client.SIsMember(ctx, inGameKey(room), playerID).Result()
}

func (s *Store) DeleteInGamePlayers(ctx context.Context, room string) error {
	return s.client.Del(ctx, inGameKey(room)).Err()
}

func (s *Store) RemoveLapPlayer(ctx context.Context, room, playerID string) error {
	return s.client.SRem(ctx, lapKey(room), playerID).Err()
}

func (s *Store) LapPlayers(ctx context.Context, room string) ([]string, error) {
	return s.client.SMembers(ctx, lapKey(room)).Result()
}

func (s *Store) LapCount(ctx context.Context, room string) (int, error) {
	n, err := s.client.SCard(ctx, lapKey(room)).Result()
	return int(n), err
}

func (s *Store) RefillLap(ctx context.Context, room string) error {
	// SDIFFSTORE with a single source copies the in-game set over the lap set.
	return s.client.SDiffStore(ctx, lapKey(room), inGameKey(room)).Err()
}

func (s *Store) DeleteLap(ctx context.Context, room string) error {
	return s.client.Del(ctx, lapKey(room)).Err()
}

func (s *Store) AddUsedWord(ctx context.Context, room, word string) error {
	return s.client.SAdd(ctx, usedWordsKey(room), word).Err()
}

func (s *Store) IsWordUsed(ctx context.Context, room, word string) (bool, error) {
	return s.client.SIsMember(ctx, usedWordsKey(room), word).Result()
}

func (s *Store) DeleteUsedWords(ctx context.Context, room string) error {
	return s.client.Del(ctx, usedWordsKey(room)).Err()
}

// roomRecord is the serialized form of a room; the password hash must round
// trip through the store even though models.Room never marshals it to clients.
type roomRecord struct {
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
	LeaderID     string `json:"leaderId"`
	GameStarted  bool   `json:"gameStarted"`
}

func (s *Store) saveJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

func (s *Store) getJSON(ctx context.Context, key string, v interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}
