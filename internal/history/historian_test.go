package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	flushes [][]RoundResult
}

func (w *fakeWriter) WriteResults(_ context.Context, recs []RoundResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := make([]RoundResult, len(recs))
	copy(cp, recs)
	w.flushes = append(w.flushes, cp)
	return nil
}

func (w *fakeWriter) all() []RoundResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []RoundResult
	for _, f := range w.flushes {
		out = append(out, f...)
	}
	return out
}

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mini := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mini.Addr()})
}

func TestPublishAndDrain(t *testing.T) {
	client := newTestClient(t)
	pub := NewPublisher(client, "")

	want := []RoundResult{
		{RoomName: "abcd", WinnerID: "conn-1", WinnerName: "alice", Words: 7, EndedAt: 1700000000000},
		{RoomName: "efgh", WinnerID: "conn-2", WinnerName: "bob", Words: 3, EndedAt: 1700000001000},
	}
	for _, rec := range want {
		require.NoError(t, pub.Publish(context.Background(), rec))
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	writer := &fakeWriter{}
	h := NewHistorian(client, writer, logger, "", 10, 50*time.Millisecond)
	go h.Run()

	assert.Eventually(t, func() bool {
		return len(writer.all()) == len(want)
	}, 3*time.Second, 20*time.Millisecond)

	h.Stop()
	assert.Equal(t, want, writer.all())
}

func TestHistorianBatchesAtSize(t *testing.T) {
	client := newTestClient(t)
	pub := NewPublisher(client, "q")

	for i := 0; i < 4; i++ {
		require.NoError(t, pub.Publish(context.Background(), RoundResult{RoomName: "abcd", Words: i}))
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	writer := &fakeWriter{}
	// Long flush delay so only the batch-size trigger can flush.
	h := NewHistorian(client, writer, logger, "q", 2, time.Minute)
	go h.Run()

	assert.Eventually(t, func() bool {
		writer.mu.Lock()
		defer writer.mu.Unlock()
		return len(writer.flushes) >= 2
	}, 3*time.Second, 20*time.Millisecond)

	h.Stop()

	writer.mu.Lock()
	defer writer.mu.Unlock()
	assert.Len(t, writer.flushes[0], 2)
	assert.Len(t, writer.flushes[1], 2)
}

func TestHistorianStopFlushesRemainder(t *testing.T) {
	client := newTestClient(t)
	pub := NewPublisher(client, "q")
	require.NoError(t, pub.Publish(context.Background(), RoundResult{RoomName: "abcd", Words: 1}))

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	writer := &fakeWriter{}
	h := NewHistorian(client, writer, logger, "q", 100, time.Minute)
	go h.Run()

	// Wait for the record to be picked up into the batch, then stop.
	assert.Eventually(t, func() bool {
		h.batchMu.Lock()
		defer h.batchMu.Unlock()
		return len(h.batch) == 1
	}, 3*time.Second, 20*time.Millisecond)

	h.Stop()
	assert.Len(t, writer.all(), 1)
}
