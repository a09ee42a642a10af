package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastletter/lastletter/internal/models"
)

func TestCreateRoomValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "alice")

	assert.ErrorIs(t, f.dir.CreateRoom(ctx, "alice", "ab", ""), ErrRoomNameTooShort)
	assert.ErrorIs(t, f.dir.CreateRoom(ctx, "alice", "  x  ", ""), ErrRoomNameTooShort)
	// Two multibyte characters are more than 3 bytes but still too short.
	assert.ErrorIs(t, f.dir.CreateRoom(ctx, "alice", "日本", ""), ErrRoomNameTooShort)

	require.NoError(t, f.dir.CreateRoom(ctx, "alice", "den", ""))
	assert.ErrorIs(t, f.dir.CreateRoom(ctx, "alice", "den", ""), ErrRoomExists)

	room, err := f.store.GetRoom(ctx, "den")
	require.NoError(t, err)
	assert.Equal(t, "alice", room.LeaderID)
	assert.Empty(t, room.PasswordHash)
}

func TestCreateRoomWhileInRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "alice")
	f.orch.CreateRoom(ctx, "alice", "den", "")

	assert.ErrorIs(t, f.dir.CreateRoom(ctx, "alice", "attic", ""), ErrAlreadyInRoom)
}

func TestJoinRoomSendsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "alice")
	f.orch.Connect(ctx, "bob")
	f.orch.CreateRoom(ctx, "alice", "den", "")
	f.notifier.reset()

	f.orch.JoinRoom(ctx, "bob", "den", "")

	// Existing members get one broadcast join notice; the joiner gets a
	// per-member replay covering everyone including itself.
	events := f.notifier.all()
	require.NotEmpty(t, events)
	assert.Equal(t, "broadcast", events[0].kind)
	assert.Equal(t, EventJoinedRoom, events[0].ev.Type)
	assert.Equal(t, "bob", events[0].ev.PlayerID)

	var replayed []string
	for _, rec := range events[1:] {
		if rec.kind == "send" && rec.target == "bob" && rec.ev.Type == EventJoinedRoom {
			replayed = append(replayed, rec.ev.PlayerID)
		}
	}
	assert.Equal(t, []string{"alice", "bob"}, replayed)
	assert.True(t, f.notifier.inGroup("den", "bob"))
}

func TestJoinRoomPasswordChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "alice")
	f.orch.Connect(ctx, "bob")
	f.orch.CreateRoom(ctx, "alice", "vault", "s3cret")

	assert.ErrorIs(t, f.dir.JoinRoom(ctx, "bob", "vault", ""), ErrInvalidPassword)
	assert.ErrorIs(t, f.dir.JoinRoom(ctx, "bob", "vault", "wrong"), ErrInvalidPassword)
	assert.NoError(t, f.dir.JoinRoom(ctx, "bob", "vault", "s3cret"))
}

func TestJoinPasswordlessRoomWithPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "alice")
	f.orch.Connect(ctx, "bob")
	f.orch.CreateRoom(ctx, "alice", "den", "")

	// Offering a password to an open room is treated as a credential
	// mismatch, not silently ignored.
	assert.ErrorIs(t, f.dir.JoinRoom(ctx, "bob", "den", "anything"), ErrInvalidPassword)
}

func TestJoinMissingRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "bob")

	assert.ErrorIs(t, f.dir.JoinRoom(ctx, "bob", "nowhere", ""), ErrRoomNotFound)
}

func TestLeaveRoomReassignsLeader(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for _, id := range []string{"alice", "bob", "cleo"} {
		f.orch.Connect(ctx, id)
	}
	f.orch.CreateRoom(ctx, "alice", "den", "")
	f.orch.JoinRoom(ctx, "bob", "den", "")
	f.orch.JoinRoom(ctx, "cleo", "den", "")
	f.notifier.reset()

	f.orch.LeaveRoom(ctx, "alice")

	room, err := f.store.GetRoom(ctx, "den")
	require.NoError(t, err)
	assert.Equal(t, "bob", room.LeaderID)

	left, ok := f.notifier.last(EventLeftRoom)
	require.True(t, ok)
	assert.Equal(t, "alice", left.ev.PlayerID)
	assert.False(t, f.notifier.inGroup("den", "alice"))

	p, err := f.store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, p.RoomName)
}

func TestLeaveDownToOneDeletesRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "alice")
	f.orch.Connect(ctx, "bob")
	f.orch.CreateRoom(ctx, "alice", "den", "")
	f.orch.JoinRoom(ctx, "bob", "den", "")

	f.orch.LeaveRoom(ctx, "alice")

	exists, err := f.store.RoomNameExists(ctx, "den")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.store.GetRoom(ctx, "den")
	assert.Error(t, err)

	// The straggler is reset to a roomless waiting state.
	p, err := f.store.GetPlayer(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, p.RoomName)
	assert.Equal(t, models.StatusWaiting, p.Status)
	assert.False(t, f.notifier.inGroup("den", "bob"))
}

func TestLeaveMidRoundEliminatesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.startedRoom(ctx, "den", "alice", "bob", "cleo")
	holder := f.turnHolder(t, "den")

	f.orch.LeaveRoom(ctx, holder)

	inGame, err := f.store.IsInGame(ctx, "den", holder)
	require.NoError(t, err)
	assert.False(t, inGame)

	// Round continues between the remaining two.
	round, err := f.store.GetRound(ctx, "den")
	require.NoError(t, err)
	assert.NotEqual(t, holder, round.PlayerTurnID)

	members, err := f.store.RoomMembers(ctx, "den")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestTryStartRoundPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "alice")
	f.orch.CreateRoom(ctx, "alice", "den", "")

	assert.ErrorIs(t, f.dir.TryStartRound(ctx, "den"), ErrNotEnoughPlayers)

	f.orch.Connect(ctx, "bob")
	f.orch.JoinRoom(ctx, "bob", "den", "")
	f.orch.ReadyToggle(ctx, "alice")
	f.notifier.reset()

	// One member still waiting: silent no-op.
	require.NoError(t, f.dir.TryStartRound(ctx, "den"))
	_, started := f.notifier.last(EventStartRound)
	assert.False(t, started)

	room, err := f.store.GetRoom(ctx, "den")
	require.NoError(t, err)
	assert.False(t, room.GameStarted)
}

func TestAllReadyStartsRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orch.Connect(ctx, "alice")
	f.orch.Connect(ctx, "bob")
	f.orch.CreateRoom(ctx, "alice", "den", "")
	f.orch.JoinRoom(ctx, "bob", "den", "")
	f.orch.ReadyToggle(ctx, "alice")
	f.notifier.reset()

	f.orch.ReadyToggle(ctx, "bob")

	_, started := f.notifier.last(EventStartRound)
	assert.True(t, started)

	room, err := f.store.GetRoom(ctx, "den")
	require.NoError(t, err)
	assert.True(t, room.GameStarted)

	for _, id := range []string{"alice", "bob"} {
		p, err := f.store.GetPlayer(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPlaying, p.Status)
	}

	next, ok := f.notifier.last(EventNextPlayer)
	require.True(t, ok)
	assert.NotEmpty(t, next.ev.PlayerID)
}
