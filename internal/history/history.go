// Package history captures finished-round results. The game path only pushes
// a record onto a Redis queue; a separate historian process drains the queue
// into Postgres, so a slow or absent database never touches round latency.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the server pushes round results onto.
const DefaultQueueName = "lastletter_round_results"

// RoundResult holds the minimal info the historian needs about one finished
// round.
type RoundResult struct {
	RoomName   string `json:"room_name"`
	WinnerID   string `json:"winner_id"`
	WinnerName string `json:"winner_name"`
	Words      int    `json:"words"`
	EndedAt    int64  `json:"ended_at"` // epoch millis
}

// Publisher pushes round results onto the historian queue.
type Publisher struct {
	client *redis.Client
	queue  string
}

// NewPublisher creates a Publisher over an existing Redis client. queue
// defaults to DefaultQueueName when empty.
func NewPublisher(client *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{client: client, queue: queue}
}

func decodeResult(data []byte) (RoundResult, error) {
	var rec RoundResult
	err := json.Unmarshal(data, &rec)
	return rec, err
}

// Publish serializes the record and RPushes it onto the queue.
func (p *Publisher) Publish(ctx context.Context, rec RoundResult) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal RoundResult: %w", err)
	}
	if err := p.client.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", p.queue, err)
	}
	return nil
}
