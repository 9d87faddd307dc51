// Command loadgen drives a running matchmaker. It seeds participants into the
// Redis registry, publishes join requests over NATS at a steady ramp, and
// reports the matchmaker's own Prometheus metrics once the run ends.
//
// Usage:
//
//	loadgen [-participants 1000] [-ramp 10s] [-hold 20s] [-redis localhost:6379] [-nats nats://localhost:4222]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/whisper/matchmaker/internal/matching"
	"github.com/whisper/matchmaker/internal/messaging"
	"github.com/whisper/matchmaker/internal/registry"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address of the participant registry")
	natsURL := flag.String("nats", "nats://localhost:4222", "NATS server URL")
	metricsURL := flag.String("metrics-url", "http://localhost:9090/metrics", "Matchmaker metrics endpoint")
	participants := flag.Int("participants", 1000, "Number of participants to join")
	mean := flag.Int("mean", 1500, "Mean rating")
	spread := flag.Int("spread", 400, "Standard deviation of ratings")
	rampUp := flag.Duration("ramp", 10*time.Second, "Duration over which joins are spread")
	hold := flag.Duration("hold", 20*time.Second, "How long to keep scraping after the last join")
	scrapeInterval := flag.Duration("scrape-interval", 2*time.Second, "Interval between metrics scrapes")
	flag.Parse()

	fmt.Printf("Load run: %d participants (rating %d±%d) over %s, hold %s\n",
		*participants, *mean, *spread, *rampUp, *hold)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}

	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.URL = *natsURL
	natsConfig.Name = "matchmaker-loadgen"
	nc, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nats: %v\n", err)
		os.Exit(1)
	}
	defer nc.Close()

	// Phase 1: seed the registry.
	fmt.Println("\n--- Phase 1: Seed participants ---")
	store := registry.NewRedisStore(rdb)
	ids := make([]string, *participants)
	for i := range ids {
		p := registry.Participant{
			ID:     fmt.Sprintf("lg-%d", i),
			Name:   fmt.Sprintf("load %d", i),
			Rating: rating(*mean, *spread),
		}
		if err := store.Put(ctx, p); err != nil {
			fmt.Fprintf(os.Stderr, "seed %s: %v\n", p.ID, err)
			os.Exit(1)
		}
		ids[i] = p.ID
	}
	fmt.Printf("  seeded %d participants\n", len(ids))

	scraper := NewScraper(*metricsURL, *scrapeInterval)
	scraper.Start(ctx)

	// Phase 2: publish joins at a steady rate.
	fmt.Println("\n--- Phase 2: Join ---")
	var sent, failed atomic.Int64
	interval := *rampUp / time.Duration(max(len(ids), 1))
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
join:
	for _, id := range ids {
		select {
		case <-ctx.Done():
			fmt.Println("\nInterrupted during join phase.")
			break join
		case <-ticker.C:
		}
		data, _ := json.Marshal(matching.JoinRequest{ParticipantID: id})
		if err := nc.Publish(messaging.SubjectMatchRequest, data); err != nil {
			failed.Add(1)
			continue
		}
		sent.Add(1)
	}
	fmt.Printf("  published %d joins (%d failed) in %s\n",
		sent.Load(), failed.Load(), time.Since(start).Round(time.Millisecond))

	// Phase 3: let the matchmaker drain the pool.
	fmt.Println("\n--- Phase 3: Hold ---")
	select {
	case <-ctx.Done():
	case <-time.After(*hold):
	}

	scraper.Stop()
	scraper.Report()
}

// rating draws a normally distributed rating, clamped at zero.
func rating(mean, spread int) int {
	return max(0, mean+int(rand.NormFloat64()*float64(spread)))
}
