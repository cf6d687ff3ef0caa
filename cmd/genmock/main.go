// Command genmock writes a simulated alert snapshot in the same envelope the
// alerts endpoint serves, so remote-source tests and demos can replay a fixed
// alert set. The generator is seeded and runs on a fixed clock, so the same
// flags always produce the same file.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -seed 42 \
//	  -at 2024-04-26T15:00:00Z \
//	  -out data/mock/alerts_seed42.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/adapter/simulator"
	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

type envelope struct {
	Alerts      []domain.Alert `json:"alerts"`
	Count       int            `json:"count"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	seed := flag.Uint64("seed", 42, "simulator seed (must be non-zero for reproducible output)")
	at := flag.String("at", "2024-04-26T15:00:00Z", "snapshot time, RFC3339")
	out := flag.String("out", "", "output path for the alert snapshot fixture")
	snapshots := flag.Int("n", 1, "number of consecutive snapshots to generate; the last one is written")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *seed == 0 {
		return fmt.Errorf("-seed must be non-zero")
	}
	now, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return fmt.Errorf("parse -at: %w", err)
	}

	clock := clockwork.NewFakeClockAt(now.UTC())
	gen := simulator.New(*seed, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var alerts []domain.Alert
	for range max(*snapshots, 1) {
		alerts, err = gen.FetchActiveAlerts(context.Background())
		if err != nil {
			return fmt.Errorf("generate alerts: %w", err)
		}
	}

	if err := writeJSON(*out, envelope{Alerts: alerts, Count: len(alerts), LastUpdated: clock.Now()}); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d alerts: %s", len(alerts), *out)

	printStats(alerts)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type labelCount struct {
	label string
	count int
}

func printStats(alerts []domain.Alert) {
	types := map[string]int{}
	severities := map[string]int{}
	regions := map[string]int{}
	for _, a := range alerts {
		types[string(a.Type)]++
		severities[a.Severity.String()]++
		if a.Area != nil {
			regions[a.Area.LocationLabel]++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(alerts))
	fmt.Printf("By severity: minor=%d, moderate=%d, severe=%d, extreme=%d\n",
		severities["minor"], severities["moderate"], severities["severe"], severities["extreme"])
	printCounts("By type", types)
	printCounts("By region", regions)
}

func printCounts(title string, counts map[string]int) {
	lc := make([]labelCount, 0, len(counts))
	for l, c := range counts {
		lc = append(lc, labelCount{l, c})
	}
	sort.Slice(lc, func(i, j int) bool {
		if lc[i].count != lc[j].count {
			return lc[i].count > lc[j].count
		}
		return lc[i].label < lc[j].label
	})
	fmt.Printf("%s (%d): ", title, len(lc))
	for _, c := range lc {
		fmt.Printf("%s=%d ", c.label, c.count)
	}
	fmt.Println()
}
