package history

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ResultWriter persists a batch of round results. The pgx-backed
// implementation lives next to the historian binary; tests use a fake.
type ResultWriter interface {
	WriteResults(ctx context.Context, recs []RoundResult) error
}

// Historian drains the round-result queue into a ResultWriter in batches,
// flushing either when the batch fills or when the flush delay elapses.
type Historian struct {
	client     *redis.Client
	writer     ResultWriter
	logger     *logrus.Logger
	queue      string
	batchSize  int
	flushDelay time.Duration

	batchMu sync.Mutex
	batch   []RoundResult

	ctx      context.Context
	cancelFn context.CancelFunc
	done     chan struct{}
}

// NewHistorian constructs a Historian. queue defaults to DefaultQueueName.
func NewHistorian(client *redis.Client, writer ResultWriter, logger *logrus.Logger, queue string, batchSize int, flushDelay time.Duration) *Historian {
	if queue == "" {
		queue = DefaultQueueName
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Historian{
		client:     client,
		writer:     writer,
		logger:     logger,
		queue:      queue,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		batch:      make([]RoundResult, 0, batchSize),
		ctx:        ctx,
		cancelFn:   cancel,
		done:       make(chan struct{}),
	}
}

// Run reads from the queue until Stop is called, accumulating records and
// flushing them to the writer.
func (h *Historian) Run() {
	defer close(h.done)

	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.flush()
			return
		case <-ticker.C:
			h.flush()
		default:
		}

		// BLPop with a short timeout so shutdown and periodic flushes are not
		// starved by an idle queue.
		res, err := h.client.BLPop(h.ctx, time.Second, h.queue).Result()
		if err != nil {
			if err == redis.Nil || h.ctx.Err() != nil {
				continue
			}
			h.logger.WithError(err).Warn("historian queue read failed")
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}

		rec, err := decodeResult([]byte(res[1]))
		if err != nil {
			h.logger.WithError(err).Warn("historian dropped malformed record")
			continue
		}

		h.batchMu.Lock()
		h.batch = append(h.batch, rec)
		full := len(h.batch) >= h.batchSize
		h.batchMu.Unlock()

		if full {
			h.flush()
		}
	}
}

// Stop terminates Run and waits for the final flush.
func (h *Historian) Stop() {
	h.cancelFn()
	<-h.done
}

func (h *Historian) flush() {
	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}
	recs := h.batch
	h.batch = make([]RoundResult, 0, h.batchSize)
	h.batchMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.writer.WriteResults(ctx, recs); err != nil {
		h.logger.WithError(err).WithField("count", len(recs)).Error("historian flush failed")
	}
}
