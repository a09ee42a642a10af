package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/lastletter/lastletter/internal/models"
	"github.com/lastletter/lastletter/internal/store"
)

type StoreSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.store = NewWithClient(client)
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *StoreSuite) TestSaveAndGetPlayer() {
	p := &models.Player{
		ID:       "conn-1",
		Name:     "alice",
		RoomName: "abcd",
		Status:   models.StatusReady,
	}
	s.Require().NoError(s.store.SavePlayer(s.ctx, p))

	got, err := s.store.GetPlayer(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.Equal(p, got)
}

func (s *StoreSuite) TestGetPlayerNotFound() {
	_, err := s.store.GetPlayer(s.ctx, "nope")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestDeletePlayer() {
	p := &models.Player{ID: "conn-1", Name: "alice", Status: models.StatusWaiting}
	s.Require().NoError(s.store.SavePlayer(s.ctx, p))
	s.Require().NoError(s.store.DeletePlayer(s.ctx, "conn-1"))

	_, err := s.store.GetPlayer(s.ctx, "conn-1")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestRoomRecordRoundTripsPasswordHash() {
	r := &models.Room{
		Name:         "abcd",
		PasswordHash: "$argon2id$v=19$m=65536,t=5,p=4$c2FsdA$aGFzaA",
		LeaderID:     "conn-1",
		GameStarted:  true,
	}
	s.Require().NoError(s.store.SaveRoom(s.ctx, r))

	got, err := s.store.GetRoom(s.ctx, "abcd")
	s.Require().NoError(err)
	s.Equal(r, got)
}

func (s *StoreSuite) TestRoomNames() {
	exists, err := s.store.RoomNameExists(s.ctx, "abcd")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.store.AddRoomName(s.ctx, "abcd"))
	exists, err = s.store.RoomNameExists(s.ctx, "abcd")
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(s.store.RemoveRoomName(s.ctx, "abcd"))
	exists, err = s.store.RoomNameExists(s.ctx, "abcd")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StoreSuite) TestRoomMembers() {
	s.Require().NoError(s.store.AddRoomMember(s.ctx, "abcd", "conn-1"))
	s.Require().NoError(s.store.AddRoomMember(s.ctx, "abcd", "conn-2"))

	members, err := s.store.RoomMembers(s.ctx, "abcd")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"conn-1", "conn-2"}, members)

	s.Require().NoError(s.store.RemoveRoomMember(s.ctx, "abcd", "conn-1"))
	members, err = s.store.RoomMembers(s.ctx, "abcd")
	s.Require().NoError(err)
	s.Equal([]string{"conn-2"}, members)

	s.Require().NoError(s.store.DeleteRoomMembers(s.ctx, "abcd"))
	members, err = s.store.RoomMembers(s.ctx, "abcd")
	s.Require().NoError(err)
	s.Empty(members)
}

func (s *StoreSuite) TestRoundRecord() {
	r := &models.Round{RoomName: "abcd", Word: "apple", PlayerTurnID: "conn-2"}
	s.Require().NoError(s.store.SaveRound(s.ctx, r))

	got, err := s.store.GetRound(s.ctx, "abcd")
	s.Require().NoError(err)
	s.Equal(r, got)

	s.Require().NoError(s.store.DeleteRound(s.ctx, "abcd"))
	_, err = s.store.GetRound(s.ctx, "abcd")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestRefillLapCopiesInGameSet() {
	s.Require().NoError(s.store.AddInGamePlayer(s.ctx, "abcd", "conn-1"))
	s.Require().NoError(s.store.AddInGamePlayer(s.ctx, "abcd", "conn-2"))
	s.Require().NoError(s.store.AddInGamePlayer(s.ctx, "abcd", "conn-3"))

	s.Require().NoError(s.store.RefillLap(s.ctx, "abcd"))
	lap, err := s.store.LapPlayers(s.ctx, "abcd")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"conn-1", "conn-2", "conn-3"}, lap)

	// Draining the lap must not touch the in-game set.
	s.Require().NoError(s.store.RemoveLapPlayer(s.ctx, "abcd", "conn-1"))
	s.Require().NoError(s.store.RemoveLapPlayer(s.ctx, "abcd", "conn-2"))
	n, err := s.store.LapCount(s.ctx, "abcd")
	s.Require().NoError(err)
	s.Equal(1, n)
	n, err = s.store.InGameCount(s.ctx, "abcd")
	s.Require().NoError(err)
	s.Equal(3, n)

	// A refill after eliminations reflects the shrunken in-game set.
	s.Require().NoError(s.store.RemoveInGamePlayer(s.ctx, "abcd", "conn-3"))
	s.Require().NoError(s.store.RefillLap(s.ctx, "abcd"))
	lap, err = s.store.LapPlayers(s.ctx, "abcd")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"conn-1", "conn-2"}, lap)
}

func (s *StoreSuite) TestUsedWords() {
	used, err := s.store.IsWordUsed(s.ctx, "abcd", "apple")
	s.Require().NoError(err)
	s.False(used)

	s.Require().NoError(s.store.AddUsedWord(s.ctx, "abcd", "apple"))
	used, err = s.store.IsWordUsed(s.ctx, "abcd", "apple")
	s.Require().NoError(err)
	s.True(used)

	s.Require().NoError(s.store.DeleteUsedWords(s.ctx, "abcd"))
	used, err = s.store.IsWordUsed(s.ctx, "abcd", "apple")
	s.Require().NoError(err)
	s.False(used)
}

func (s *StoreSuite) TestIsInGame() {
	ok, err := s.store.IsInGame(s.ctx, "abcd", "conn-1")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.AddInGamePlayer(s.ctx, "abcd", "conn-1"))
	ok, err = s.store.IsInGame(s.ctx, "abcd", "conn-1")
	s.Require().NoError(err)
	s.True(ok)
}
