// Package main provides the end-to-end pipeline entry point.
// Executes: CSV ingest → annotation → simulation → metrics → reporting
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/marketdata"
	"swing-trade-lab/internal/orchestrator"
	"swing-trade-lab/internal/reporting"
	"swing-trade-lab/internal/storage/memory"
)

func main() {
	csvDir := flag.String("csv-dir", "", "Directory of SYMBOL.csv bar files (required)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated reports")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if *csvDir == "" {
		fmt.Fprintln(os.Stderr, "--csv-dir is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	barStore := memory.NewBarStore()
	tradeStore := memory.NewTradeStore()
	equityStore := memory.NewEquityCurveStore()

	// Phase 1: Ingest
	fmt.Println("=== E2E Pipeline ===")
	symbols, window, err := ingestCSVDir(ctx, barStore, *csvDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error ingesting bars: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d symbols from %s\n", len(symbols), *csvDir)

	// Phases 2-4: annotation → simulation → metrics
	orch, err := orchestrator.New(orchestrator.Options{
		BarStore:    barStore,
		TradeStore:  tradeStore,
		EquityStore: equityStore,
		RunConfig:   domain.DefaultRunConfig(),
		StrategyConfigs: []domain.StrategyConfig{
			{StrategyType: domain.StrategyTypeMomentum},
			{StrategyType: domain.StrategyTypePullback},
		},
		Verbose: *verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Orchestrator error: %v\n", err)
		os.Exit(1)
	}

	result, err := orch.Run(ctx, symbols, window.start, window.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Orchestrator error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Orchestrator completed:\n")
	fmt.Printf("  Runs: %d\n", len(result.Reports))
	fmt.Printf("  Trades: %d\n", result.TradesCreated)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	// Phase 5: Reporting
	fmt.Println("\n=== Reporting ===")
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	for _, r := range result.Reports {
		path := filepath.Join(*outputDir, r.RunID+".md")
		if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(r)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		p := r.Performance
		fmt.Printf("  %s  %-6s %-36s trades=%-3d return=$%.2f → %s\n",
			r.RunID, p.Symbol, p.StrategyID, p.TotalTrades, p.TotalReturn, path)
	}

	fmt.Println("\nPipeline completed.")
}

type timeWindow struct {
	start, end time.Time
}

// ingestCSVDir loads every SYMBOL.csv into the bar store and returns
// the symbols plus the overall time window the data covers.
func ingestCSVDir(ctx context.Context, barStore *memory.BarStore, dir string) ([]string, timeWindow, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, timeWindow{}, err
	}
	if len(matches) == 0 {
		return nil, timeWindow{}, fmt.Errorf("no .csv files in %s", dir)
	}

	var symbols []string
	var window timeWindow
	for _, path := range matches {
		symbol := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), ".csv"))
		bars, err := marketdata.LoadFile(path, symbol)
		if err != nil {
			return nil, timeWindow{}, err
		}
		if err := barStore.InsertBulk(ctx, bars); err != nil {
			return nil, timeWindow{}, err
		}

		first := bars[0].Timestamp
		last := bars[len(bars)-1].Timestamp
		if window.start.IsZero() || first.Before(window.start) {
			window.start = first
		}
		if last.After(window.end) {
			window.end = last
		}
		symbols = append(symbols, symbol)
	}
	return symbols, window, nil
}
