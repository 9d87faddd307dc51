package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// metricSnapshot holds the matchmaker metrics at a point in time.
type metricSnapshot struct {
	timestamp time.Time
	poolSize  float64
	joins     float64
	matches   float64
	panics    float64
	waitSum   float64
	waitCount float64
	tickSum   float64
	tickCount float64
}

// Scraper periodically fetches the matchmaker's Prometheus metrics and keeps
// the snapshots for the final report.
type Scraper struct {
	metricsURL string
	interval   time.Duration

	mu        sync.Mutex
	snapshots []metricSnapshot

	cancel context.CancelFunc
	done   chan struct{}
	client *http.Client
}

// NewScraper creates a Scraper for metricsURL.
func NewScraper(metricsURL string, interval time.Duration) *Scraper {
	return &Scraper{
		metricsURL: metricsURL,
		interval:   interval,
		client:     &http.Client{Timeout: 5 * time.Second},
		done:       make(chan struct{}),
	}
}

// Start takes a snapshot immediately and then one per interval until ctx is
// cancelled or Stop is called.
func (s *Scraper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.scrapeOnce()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.scrapeOnce()
				return
			case <-ticker.C:
				s.scrapeOnce()
			}
		}
	}()
}

// Stop stops the background scraper and waits for the final snapshot.
func (s *Scraper) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Scraper) scrapeOnce() {
	resp, err := s.client.Get(s.metricsURL)
	if err != nil {
		// The matchmaker may not be up yet.
		return
	}
	defer resp.Body.Close()

	snap, err := parseSnapshot(resp.Body)
	if err != nil {
		return
	}
	snap.timestamp = time.Now()

	s.mu.Lock()
	s.snapshots = append(s.snapshots, snap)
	s.mu.Unlock()
}

// parseSnapshot reads the Prometheus text exposition format.
func parseSnapshot(r io.Reader) (metricSnapshot, error) {
	var snap metricSnapshot
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		name, value, ok := parseMetricLine(line)
		if !ok {
			continue
		}

		switch name {
		case "matchmaker_pool_size":
			snap.poolSize = value
		case "matchmaker_joins_total":
			// One line per result label.
			snap.joins += value
		case "matchmaker_matches_total":
			snap.matches = value
		case "matchmaker_tick_panics_total":
			snap.panics = value
		case "matchmaker_match_wait_seconds_sum":
			snap.waitSum = value
		case "matchmaker_match_wait_seconds_count":
			snap.waitCount = value
		case "matchmaker_tick_duration_seconds_sum":
			snap.tickSum = value
		case "matchmaker_tick_duration_seconds_count":
			snap.tickCount = value
		}
	}
	return snap, scanner.Err()
}

// parseMetricLine splits an exposition line into its metric name, without
// labels, and value.
func parseMetricLine(line string) (name string, value float64, ok bool) {
	raw := line
	if idx := strings.IndexByte(raw, '{'); idx != -1 {
		name = raw[:idx]
		closing := strings.IndexByte(raw[idx:], '}')
		if closing == -1 {
			return "", 0, false
		}
		raw = name + raw[idx+closing+1:]
	}

	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return "", 0, false
	}
	if name == "" {
		name = fields[0]
	}

	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, false
	}
	return name, v, true
}

// Report prints initial, final, delta and peak for each tracked metric, and
// the average wait and tick time over the run.
func (s *Scraper) Report() {
	s.mu.Lock()
	snaps := make([]metricSnapshot, len(s.snapshots))
	copy(snaps, s.snapshots)
	s.mu.Unlock()

	if len(snaps) == 0 {
		fmt.Println("\n--- Matchmaker Metrics (no data collected) ---")
		return
	}

	first := snaps[0]
	last := snaps[len(snaps)-1]

	fmt.Println("\n--- Matchmaker Metrics ---")
	fmt.Printf("  Scrape count:  %d snapshots over %s\n",
		len(snaps), last.timestamp.Sub(first.timestamp).Round(time.Second))

	rows := []struct {
		label          string
		initial, final float64
		extract        func(metricSnapshot) float64
	}{
		{"Pool Size", first.poolSize, last.poolSize, func(s metricSnapshot) float64 { return s.poolSize }},
		{"Joins", first.joins, last.joins, func(s metricSnapshot) float64 { return s.joins }},
		{"Matches", first.matches, last.matches, func(s metricSnapshot) float64 { return s.matches }},
		{"Tick Panics", first.panics, last.panics, func(s metricSnapshot) float64 { return s.panics }},
	}

	fmt.Println()
	fmt.Printf("  %-12s %10s %10s %10s %10s\n", "Metric", "Initial", "Final", "Delta", "Peak")
	fmt.Printf("  %-12s %10s %10s %10s %10s\n", "------", "-------", "-----", "-----", "----")
	for _, r := range rows {
		fmt.Printf("  %-12s %10.0f %10.0f %10.0f %10.0f\n",
			r.label, r.initial, r.final, r.final-r.initial, peakValue(snaps, r.extract))
	}

	fmt.Println()
	printHistogramAvg("Match Wait", first.waitSum, first.waitCount, last.waitSum, last.waitCount)
	printHistogramAvg("Tick", first.tickSum, first.tickCount, last.tickSum, last.tickCount)
}

func printHistogramAvg(label string, sumFirst, countFirst, sumLast, countLast float64) {
	deltaSum := sumLast - sumFirst
	deltaCount := countLast - countFirst
	if deltaCount > 0 {
		fmt.Printf("  %-12s avg: %.4fs  (%.0f observations)\n", label, deltaSum/deltaCount, deltaCount)
	} else {
		fmt.Printf("  %-12s avg: N/A  (no observations)\n", label)
	}
}

func peakValue(snaps []metricSnapshot, extract func(metricSnapshot) float64) float64 {
	peak := math.Inf(-1)
	for _, s := range snaps {
		if v := extract(s); v > peak {
			peak = v
		}
	}
	return peak
}
