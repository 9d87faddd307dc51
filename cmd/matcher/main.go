package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/whisper/matchmaker/internal/config"
	"github.com/whisper/matchmaker/internal/matching"
	"github.com/whisper/matchmaker/internal/messaging"
	"github.com/whisper/matchmaker/internal/metrics"
	"github.com/whisper/matchmaker/internal/ratelimit"
	"github.com/whisper/matchmaker/internal/registry"
)

func main() {
	log.Println("Starting matchmaker...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Redis setup (optional): participant store and join rate limiting.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		cancel()
	}

	reg, closeRegistry := openRegistry(cfg, rdb)
	defer closeRegistry()

	svc, err := matching.NewService(cfg.Matching(), reg)
	if err != nil {
		log.Fatalf("failed to create matchmaker: %v", err)
	}
	svc.Subscribe(func(m matching.Match) {
		log.Printf("[matcher] match %s: %s vs. %s", m.MatchID, m.ParticipantA, m.ParticipantB)
	})
	svc.Start()

	// NATS setup (optional): join/leave requests from other services.
	var natsClient *messaging.NATSClient
	if cfg.NATSURL != "" {
		natsConfig := messaging.DefaultNATSConfig()
		natsConfig.URL = cfg.NATSURL
		natsConfig.Name = "matchmaker"

		natsClient, err = messaging.NewNATSClient(natsConfig)
		if err != nil {
			log.Fatalf("failed to connect to NATS: %v", err)
		}

		var limiter matching.Limiter
		if rdb != nil {
			limiter = ratelimit.NewLimiter(rdb)
		}
		if err := matching.NewIntake(svc, limiter).Listen(natsClient); err != nil {
			log.Fatalf("failed to subscribe to match requests: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server error: %v", err)
		}
	}()

	log.Printf("Matchmaker running")
	log.Printf("  matching_interval:     %s", cfg.MatchingInterval)
	log.Printf("  search_widening_delay: %s", cfg.SearchWideningDelay)
	log.Printf("  fair_mmr_threshold:    %d", cfg.FairMMRThreshold)
	log.Printf("  widening:              %s @ %d/s", cfg.WideningPolicy, cfg.WideningRate)
	log.Printf("  redis_addr:            %s", cfg.RedisAddr)
	log.Printf("  nats_url:              %s", cfg.NATSURL)
	log.Printf("  metrics_addr:          %s", cfg.MetricsAddr)

	// Graceful shutdown: stop ticking before exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	svc.Stop()
	if natsClient != nil {
		natsClient.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Printf("metrics server shutdown: %v", err)
	}
	if rdb != nil {
		rdb.Close()
	}
}

// openRegistry picks the participant registry: a players file, then
// PostgreSQL, then Redis, else the empty registry.
func openRegistry(cfg config.Config, rdb *redis.Client) (registry.Registry, func()) {
	noop := func() {}

	if cfg.PlayersFile != "" {
		players, err := registry.LoadFile(cfg.PlayersFile)
		if err != nil {
			log.Fatalf("failed to load players: %v", err)
		}
		log.Printf("[registry] %d participants from %s", len(players), cfg.PlayersFile)
		return registry.Select(nil, players), noop
	}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db, err := registry.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to PostgreSQL: %v", err)
		}
		if err := registry.Migrate(db); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		log.Printf("[registry] using PostgreSQL participants table")
		return registry.NewPostgresStore(db), func() { db.Close() }
	}

	if rdb != nil {
		log.Printf("[registry] using Redis participant hashes")
		return registry.NewRedisStore(rdb), noop
	}

	log.Printf("[registry] no participant source configured, every join will be rejected")
	return registry.Select(nil, nil), noop
}
