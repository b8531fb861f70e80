package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"swing-trade-lab/internal/config"
	"swing-trade-lab/internal/reporting"
	chstore "swing-trade-lab/internal/storage/clickhouse"
	pgstore "swing-trade-lab/internal/storage/postgres"
)

func main() {
	runID := flag.String("run-id", "", "Run ID of the equity curve (required)")
	strategyID := flag.String("strategy-id", "", "Full strategy ID of the trades (required)")
	symbol := flag.String("symbol", "", "Symbol filter (required)")
	startStr := flag.String("start", "", "Window start, YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "Window end, YYYY-MM-DD (required)")
	initialCapital := flag.Float64("initial-capital", 0, "Initial capital of the run (0 = config default)")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default from POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (default from CLICKHOUSE_DSN)")

	format := flag.String("format", "markdown", "Output format: markdown, trades-csv, equity-csv, json")
	outPath := flag.String("out", "", "Write output to this file instead of stdout")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *postgresDSN == "" {
		*postgresDSN = cfg.PostgresDSN
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = cfg.ClickhouseDSN
	}
	if *initialCapital <= 0 {
		*initialCapital = cfg.Run.InitialCapital
	}

	if *runID == "" || *strategyID == "" || *symbol == "" {
		logger.Fatal("--run-id, --strategy-id, and --symbol are required")
	}
	if *postgresDSN == "" || *clickhouseDSN == "" {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (trades and equity curves)")
	}

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		logger.Fatalf("invalid --start: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		logger.Fatalf("invalid --end: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	generator := reporting.NewGenerator(pgstore.NewTradeStore(pool), chstore.NewEquityCurveStore(conn))

	report, err := generator.Generate(ctx, reporting.Params{
		RunID:          *runID,
		StrategyID:     *strategyID,
		Symbol:         strings.ToUpper(*symbol),
		InitialCapital: *initialCapital,
		StartDate:      start,
		EndDate:        end,
	})
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	var output string
	switch strings.ToLower(*format) {
	case "markdown":
		output = reporting.RenderMarkdown(report)
	case "trades-csv":
		output = reporting.RenderTradesCSV(report.Trades)
	case "equity-csv":
		output = reporting.RenderEquityCSV(report.EquityCurve)
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Fatalf("marshal report: %v", err)
		}
		output = string(data)
	default:
		logger.Fatalf("invalid format: %s. Must be markdown, trades-csv, equity-csv, or json", *format)
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(output), 0o644); err != nil {
			logger.Fatalf("write %s: %v", *outPath, err)
		}
		logger.Printf("Wrote %s report to %s", *format, *outPath)
		return
	}
	fmt.Print(output)
}
