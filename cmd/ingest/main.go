package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"swing-trade-lab/internal/config"
	"swing-trade-lab/internal/marketdata"
	"swing-trade-lab/internal/observability"
	"swing-trade-lab/internal/storage"
	chstore "swing-trade-lab/internal/storage/clickhouse"
	"swing-trade-lab/internal/storage/migrations"
	pgstore "swing-trade-lab/internal/storage/postgres"
)

func main() {
	csvPath := flag.String("csv", "", "CSV bar file to ingest (requires --symbol)")
	symbol := flag.String("symbol", "", "Symbol for --csv")
	csvDir := flag.String("csv-dir", "", "Directory of SYMBOL.csv files to ingest")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default from POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (default from CLICKHOUSE_DSN)")
	migrate := flag.Bool("migrate", false, "Apply schema migrations before ingesting")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stderr, "[ingest] ", log.LstdFlags)

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

	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required (bar storage)")
	}
	if *csvPath == "" && *csvDir == "" {
		logger.Fatal("--csv or --csv-dir is required")
	}
	if *csvPath != "" && *symbol == "" {
		logger.Fatal("--symbol is required with --csv")
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
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

	// Migrations: ClickHouse (bars, equity curves) always; Postgres
	// (trades, signal logs) when a DSN is present.
	var conn *chstore.Conn
	if *migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		logger.Print("ClickHouse migrations applied")

		if *postgresDSN != "" {
			pool, err := pgstore.NewPool(ctx, *postgresDSN)
			if err != nil {
				logger.Fatalf("connect to postgres: %v", err)
			}
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				pool.Close()
				logger.Fatalf("postgres migrations: %v", err)
			}
			pool.Close()
			logger.Print("Postgres migrations applied")
		}
	} else {
		conn, err = chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
	}
	defer conn.Close()

	barStore := chstore.NewBarStore(conn)

	files, err := collectFiles(*csvPath, *symbol, *csvDir)
	if err != nil {
		logger.Fatal(err)
	}

	var total int
	for sym, path := range files {
		n, err := ingestFile(ctx, barStore, path, sym)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				logger.Printf("%s: already ingested, skipping", sym)
				continue
			}
			logger.Fatalf("ingest %s: %v", sym, err)
		}
		logger.Printf("%s: ingested %d bars from %s", sym, n, path)
		total += n
	}
	logger.Printf("Done: %d bars across %d symbols", total, len(files))
}

// collectFiles maps symbols to CSV paths from either input mode.
func collectFiles(csvPath, symbol, csvDir string) (map[string]string, error) {
	files := make(map[string]string)

	if csvPath != "" {
		files[strings.ToUpper(symbol)] = csvPath
		return files, nil
	}

	matches, err := filepath.Glob(filepath.Join(csvDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	for _, path := range matches {
		base := strings.TrimSuffix(filepath.Base(path), ".csv")
		files[strings.ToUpper(base)] = path
	}
	if len(files) == 0 {
		return nil, errors.New("no .csv files found in --csv-dir")
	}
	return files, nil
}

func ingestFile(ctx context.Context, barStore storage.BarStore, path, symbol string) (int, error) {
	bars, err := marketdata.LoadFile(path, symbol)
	if err != nil {
		return 0, err
	}
	if err := barStore.InsertBulk(ctx, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}
