package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"swing-trade-lab/internal/config"
	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/marketdata"
	"swing-trade-lab/internal/orchestrator"
	"swing-trade-lab/internal/reporting"
	"swing-trade-lab/internal/storage"
	chstore "swing-trade-lab/internal/storage/clickhouse"
	"swing-trade-lab/internal/storage/memory"
	pgstore "swing-trade-lab/internal/storage/postgres"
)

func main() {
	// Input
	symbols := flag.String("symbols", "", "Comma-separated symbols to backtest (required)")
	csvPath := flag.String("csv", "", "CSV file with OHLCV bars (single symbol; bypasses bar storage)")
	startStr := flag.String("start", "", "Window start, YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "Window end, YYYY-MM-DD (required)")

	// Strategy
	strategyType := flag.String("strategy", "ALL", "Strategy: MOMENTUM, PULLBACK, ALL")
	lookback := flag.Int("lookback", 0, "MOMENTUM breakout lookback (0 = default)")
	volumeMult := flag.Float64("volume-mult", 0, "MOMENTUM volume multiple (0 = default)")
	emaPeriod := flag.Int("ema-period", 0, "PULLBACK EMA period (0 = default)")
	volumeDecline := flag.Float64("volume-decline", 0, "PULLBACK volume decline threshold (0 = default)")
	atrStopMult := flag.Float64("atr-stop-mult", 0, "Stop distance in ATR multiples (0 = default)")
	targetR := flag.Float64("target-r", 0, "Target as r-multiple of initial risk (0 = default)")
	trailR := flag.Float64("trail-r", 0, "R-multiple at which the ATR trail engages (0 = default)")

	// Run parameters (0 falls back to the environment config)
	initialCapital := flag.Float64("initial-capital", 0, "Initial capital (0 = config default)")
	commission := flag.Float64("commission", -1, "Commission per trade (-1 = config default)")
	slippage := flag.Float64("slippage", -1, "Slippage pct per side (-1 = config default)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default from POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (default from CLICKHOUSE_DSN)")
	persist := flag.Bool("persist", false, "Persist trades and equity curves to storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output reports as JSON")
	markdownDir := flag.String("markdown-dir", "", "Write one markdown report per run into this directory")
	tradesCSV := flag.String("trades-csv", "", "Write the combined trade ledger CSV to this file")
	verbose := flag.Bool("verbose", false, "Verbose orchestrator logging")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

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

	if *symbols == "" && *csvPath == "" {
		logger.Fatal("--symbols or --csv is required")
	}
	if *csvPath != "" && len(splitSymbols(*symbols)) > 1 {
		logger.Fatal("--csv carries a single symbol; pass exactly one in --symbols")
	}

	start, end, err := parseWindow(*startStr, *endStr)
	if err != nil {
		logger.Fatal(err)
	}

	runConfig := cfg.Run
	if *initialCapital > 0 {
		runConfig.InitialCapital = *initialCapital
	}
	if *commission >= 0 {
		runConfig.CommissionPerTrade = *commission
	}
	if *slippage >= 0 {
		runConfig.SlippagePct = *slippage
	}

	strategyConfigs, err := buildStrategyConfigs(*strategyType,
		*lookback, *emaPeriod, *volumeMult, *volumeDecline, *atrStopMult, *targetR, *trailR)
	if err != nil {
		logger.Fatal(err)
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

	// Store wiring. Memory stores unless DSNs are supplied.
	var barStore storage.BarStore
	var tradeStore storage.TradeStore = memory.NewTradeStore()
	var equityStore storage.EquityCurveStore = memory.NewEquityCurveStore()

	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		tradeStore = pgstore.NewTradeStore(pool)
	}

	if *clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		barStore = chstore.NewBarStore(conn)
		equityStore = chstore.NewEquityCurveStore(conn)
	}

	if !*persist {
		tradeStore = nil
		equityStore = nil
	}

	o, err := orchestrator.New(orchestrator.Options{
		BarStore:        barStore,
		TradeStore:      tradeStore,
		EquityStore:     equityStore,
		RunConfig:       runConfig,
		StrategyConfigs: strategyConfigs,
		Verbose:         *verbose,
	})
	if err != nil {
		logger.Fatalf("create orchestrator: %v", err)
	}

	var result *orchestrator.RunResult
	if *csvPath != "" {
		symbol := splitSymbols(*symbols)[0]
		bars, err := marketdata.LoadFile(*csvPath, symbol)
		if err != nil {
			logger.Fatalf("load csv: %v", err)
		}
		logger.Printf("Running backtest: %s, %d bars from %s", symbol, len(bars), *csvPath)
		result, err = o.RunSeries(ctx, symbol, bars, start, end)
		if err != nil {
			logger.Fatalf("backtest failed: %v", err)
		}
	} else {
		if barStore == nil {
			logger.Fatal("--clickhouse-dsn is required to load bars when --csv is not given")
		}
		syms := splitSymbols(*symbols)
		logger.Printf("Running backtest: %v, %s to %s", syms, *startStr, *endStr)
		result, err = o.Run(ctx, syms, start, end)
		if err != nil {
			logger.Fatalf("backtest failed: %v", err)
		}
	}

	for _, e := range result.Errors {
		logger.Printf("warning: %s", e)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(result.Reports, "", "  ")
		fmt.Println(string(output))
	} else {
		printReports(result.Reports)
	}

	if *markdownDir != "" {
		if err := writeMarkdownReports(*markdownDir, result.Reports); err != nil {
			logger.Fatalf("write markdown reports: %v", err)
		}
	}
	if *tradesCSV != "" {
		if err := writeTradesCSV(*tradesCSV, result.Reports); err != nil {
			logger.Fatalf("write trades csv: %v", err)
		}
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if sym := strings.ToUpper(strings.TrimSpace(part)); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--start and --end are required (YYYY-MM-DD)")
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %v", err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %v", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end must be after --start")
	}
	return start, end, nil
}

// buildStrategyConfigs maps CLI flags onto strategy configs. Zero-valued
// flags stay nil so the factory applies its defaults.
func buildStrategyConfigs(strategyType string, lookback, emaPeriod int, volumeMult, volumeDecline, atrStopMult, targetR, trailR float64) ([]domain.StrategyConfig, error) {
	common := domain.StrategyConfig{}
	if atrStopMult > 0 {
		common.ATRStopMult = &atrStopMult
	}
	if targetR > 0 {
		common.TargetR = &targetR
	}
	if trailR > 0 {
		common.TrailR = &trailR
	}

	momentum := common
	momentum.StrategyType = domain.StrategyTypeMomentum
	if lookback > 0 {
		momentum.Lookback = &lookback
	}
	if volumeMult > 0 {
		momentum.VolumeMult = &volumeMult
	}

	pullback := common
	pullback.StrategyType = domain.StrategyTypePullback
	if emaPeriod > 0 {
		pullback.EMAPeriod = &emaPeriod
	}
	if volumeDecline > 0 {
		pullback.VolumeDecline = &volumeDecline
	}

	switch strings.ToUpper(strategyType) {
	case domain.StrategyTypeMomentum:
		return []domain.StrategyConfig{momentum}, nil
	case domain.StrategyTypePullback:
		return []domain.StrategyConfig{pullback}, nil
	case "ALL":
		return []domain.StrategyConfig{momentum, pullback}, nil
	default:
		return nil, fmt.Errorf("invalid strategy: %s. Must be MOMENTUM, PULLBACK, or ALL", strategyType)
	}
}

// printReports renders one performance row per (symbol, strategy) run.
func printReports(reports []*reporting.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		"Run", "Symbol", "Strategy", "Trades", "Win %", "Return", "CAGR %", "Max DD %", "Sharpe", "PF",
	})

	for _, r := range reports {
		p := r.Performance
		t.AppendRow(table.Row{
			r.RunID,
			p.Symbol,
			p.StrategyID,
			p.TotalTrades,
			fmt.Sprintf("%.1f", p.WinRate*100),
			fmt.Sprintf("$%.2f", p.TotalReturn),
			fmt.Sprintf("%.2f", p.CAGR*100),
			fmt.Sprintf("%.2f", p.MaxDrawdownPct*100),
			fmt.Sprintf("%.2f", p.SharpeRatio),
			formatPF(p.ProfitFactor),
		})
	}
	t.Render()
}

func formatPF(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}

func writeMarkdownReports(dir string, reports []*reporting.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, r := range reports {
		path := fmt.Sprintf("%s/%s.md", dir, r.RunID)
		if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(r)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeTradesCSV(path string, reports []*reporting.Report) error {
	var trades []*domain.Trade
	for _, r := range reports {
		trades = append(trades, r.Trades...)
	}
	return os.WriteFile(path, []byte(reporting.RenderTradesCSV(trades)), 0o644)
}
