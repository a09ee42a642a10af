// cmd/historian/main.go is an asynchronous service that pops round results
// from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lastletter/lastletter/internal/history"
)

// PostgresWriter persists round-result batches into the round_results table,
// one transaction per batch.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return &PostgresWriter{pool: pool}, nil
}

func (w *PostgresWriter) Close() {
	w.pool.Close()
}

// WriteResults implements history.ResultWriter.
func (w *PostgresWriter) WriteResults(ctx context.Context, recs []history.RoundResult) error {
	return beginTxFunc(ctx, w.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO round_results (
				room_name, winner_id, winner_name, words, ended_at
			) VALUES ($1, $2, $3, $4, to_timestamp($5 / 1000.0))
		`
		for _, rec := range recs {
			if _, err := tx.Exec(ctx, q,
				rec.RoomName, rec.WinnerID, rec.WinnerName, rec.Words, rec.EndedAt,
			); err != nil {
				return fmt.Errorf("insert round result: %w", err)
			}
		}
		return nil
	})
}

// beginTxFunc starts a transaction on the pool, calls f with it, and commits
// or rolls back as needed.
func beginTxFunc(ctx context.Context, pool *pgxpool.Pool, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	writer, err := NewPostgresWriter(ctx, dsn)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer writer.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	defer rdb.Close()

	h := history.NewHistorian(
		rdb,
		writer,
		logger,
		getEnv("HISTORIAN_QUEUE_NAME", history.DefaultQueueName),
		getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500))*time.Millisecond,
	)
	go h.Run()
	logger.Info("historian service started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	h.Stop()
	logger.Info("historian shutdown complete")
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer from an environment variable or returns a
// default when unset or malformed.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
