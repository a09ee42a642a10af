// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/lastletter/lastletter/internal/auth"
	"github.com/lastletter/lastletter/internal/game"
	"github.com/lastletter/lastletter/internal/handlers"
	"github.com/lastletter/lastletter/internal/history"
	"github.com/lastletter/lastletter/internal/middleware"
	"github.com/lastletter/lastletter/internal/random"
	redisstore "github.com/lastletter/lastletter/internal/store/redis"
	"github.com/lastletter/lastletter/internal/words"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("failed to initialize auth keys: %v", err)
	}

	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("invalid REDIS_DB %q: %v", raw, err)
		}
		redisDB = n
	}

	st, err := redisstore.New(redisAddr, redisDB)
	if err != nil {
		log.Fatalf("failed to connect to redis at %s: %v", redisAddr, err)
	}
	defer st.Close()
	logger.Infof("connected to redis at %s (db %d)", redisAddr, redisDB)

	validator := words.NewAPIValidator(
		envOr("DICTIONARY_API_URL", words.DefaultAPIBaseURL),
		10*time.Second,
		logger,
	)

	hub := handlers.NewHub(logger)
	locks := game.NewRoomLocks()
	publisher := history.NewPublisher(st.Client(), history.DefaultQueueName)

	engine := game.NewEngine(st, hub, validator, random.New(), locks, logger, publisher)
	if raw := os.Getenv("TURN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid TURN_TIMEOUT %q: %v", raw, err)
		}
		engine.TurnTimeout = d
	}

	registry := game.NewRegistry(st)
	directory := game.NewDirectory(st, hub, engine, logger)
	orch := game.NewOrchestrator(registry, directory, engine, st, hub, locks, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, hub, orch),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
