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

	"github.com/jedib0t/go-pretty/v6/table"

	"swing-trade-lab/internal/broker"
	"swing-trade-lab/internal/config"
	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/marketdata"
	"swing-trade-lab/internal/observability"
	"swing-trade-lab/internal/orchestrator"
	"swing-trade-lab/internal/risk"
	"swing-trade-lab/internal/storage"
	chstore "swing-trade-lab/internal/storage/clickhouse"
	pgstore "swing-trade-lab/internal/storage/postgres"
)

func main() {
	symbols := flag.String("symbols", "", "Comma-separated symbols to scan (required)")
	csvDir := flag.String("csv-dir", "", "Directory of SYMBOL.csv bar files (bypasses bar storage)")

	strategyType := flag.String("strategy", "ALL", "Strategy: MOMENTUM, PULLBACK, ALL")
	equity := flag.Float64("equity", 0, "Account equity for sizing and risk checks (0 = fetch from broker)")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the signal journal (default from POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for bars (default from CLICKHOUSE_DSN)")

	useBroker := flag.Bool("broker", false, "Pull equity and open positions from the paper broker")
	execute := flag.Bool("execute", false, "Place bracket orders for executed setups (requires --broker)")
	watch := flag.Bool("watch", false, "After scanning, stream live quotes for executed setups until interrupted")
	outputJSON := flag.Bool("json", false, "Output scan results as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[scan] ", log.LstdFlags)

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

	syms := splitSymbols(*symbols)
	if len(syms) == 0 {
		logger.Fatal("--symbols is required")
	}
	if *csvDir == "" && *clickhouseDSN == "" {
		logger.Fatal("--csv-dir or --clickhouse-dsn is required to load bars")
	}

	strategyConfigs, err := buildStrategyConfigs(*strategyType)
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

	// Journal store; scans without a DSN run unjournaled.
	var signalLogStore storage.SignalLogStore
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		signalLogStore = pgstore.NewSignalLogStore(pool)
	} else {
		logger.Print("no postgres DSN: signals will not be journaled")
	}

	var barStore storage.BarStore
	if *clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		barStore = chstore.NewBarStore(conn)
	}

	if *execute && !*useBroker {
		logger.Fatal("--execute requires --broker")
	}

	// Account state: flag-supplied, broker-fetched, or config default.
	accountEquity := *equity
	var openPositions []risk.OpenPosition
	var client *broker.Client
	if *useBroker {
		client, err = newBrokerClient(cfg)
		if err != nil {
			logger.Fatalf("create broker client: %v", err)
		}
		accountEquity, openPositions, err = fetchAccountState(ctx, client)
		if err != nil {
			logger.Fatalf("fetch account state: %v", err)
		}
		logger.Printf("Broker equity $%.2f, %d open positions", accountEquity, len(openPositions))
	} else if accountEquity <= 0 {
		accountEquity = cfg.Run.InitialCapital
	}

	scanner, err := orchestrator.NewScanner(signalLogStore, cfg.Run, cfg.Limits, strategyConfigs)
	if err != nil {
		logger.Fatalf("create scanner: %v", err)
	}

	var all []orchestrator.ScanResult
	for _, symbol := range syms {
		bars, err := loadBars(ctx, barStore, *csvDir, symbol)
		if err != nil {
			logger.Printf("warning: %s: %v", symbol, err)
			continue
		}

		results, err := scanner.Scan(ctx, symbol, bars, accountEquity, openPositions)
		if err != nil {
			logger.Fatalf("scan %s: %v", symbol, err)
		}
		all = append(all, results...)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(all, "", "  ")
		fmt.Println(string(output))
	} else {
		printScanResults(all)
	}

	if *execute {
		placeOrders(ctx, logger, client, all)
	}

	if *watch {
		if err := watchQuotes(ctx, logger, cfg, executedSymbols(all)); err != nil {
			logger.Fatalf("watch quotes: %v", err)
		}
	}
}

// placeOrders submits a bracket order for every executed setup. A
// failed order is logged and counted, not fatal; other setups still go
// through.
func placeOrders(ctx context.Context, logger *log.Logger, client *broker.Client, results []orchestrator.ScanResult) {
	for _, r := range results {
		if r.Action != domain.SignalActionExecuted {
			continue
		}

		order, err := client.PlaceBracketOrder(ctx, broker.BracketOrderRequest{
			Symbol:      r.Setup.Symbol,
			Qty:         r.Sizing.Shares,
			LimitPrice:  r.Setup.Entry,
			StopPrice:   r.Setup.Stop,
			TargetPrice: r.Setup.Target,
		})
		observability.RecordOrderPlaced(broker.SideBuy, broker.OrderTypeLimit, err)
		if err != nil {
			logger.Printf("place bracket order %s: %v", r.Setup.Symbol, err)
			continue
		}
		logger.Printf("Placed bracket order %s: %d %s @ $%.2f (stop $%.2f, target $%.2f)",
			order.OrderID, order.Qty, order.Symbol, r.Setup.Entry, r.Setup.Stop, r.Setup.Target)
	}
}

// executedSymbols returns the deduplicated symbols of executed setups.
func executedSymbols(results []orchestrator.ScanResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range results {
		if r.Action != domain.SignalActionExecuted || seen[r.Setup.Symbol] {
			continue
		}
		seen[r.Setup.Symbol] = true
		out = append(out, r.Setup.Symbol)
	}
	return out
}

// watchQuotes streams live quotes for the given symbols until the
// context is cancelled.
func watchQuotes(ctx context.Context, logger *log.Logger, cfg *config.Config, symbols []string) error {
	if len(symbols) == 0 {
		logger.Print("no executed setups to watch")
		return nil
	}

	stream, err := broker.NewQuoteStream(ctx, cfg.BrokerStreamURL, cfg.BrokerAPIKey, cfg.BrokerSecretKey, nil)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Subscribe(symbols...); err != nil {
		return err
	}
	logger.Printf("Watching quotes for %v (Ctrl-C to stop)", symbols)

	for {
		select {
		case <-ctx.Done():
			return nil
		case q, ok := <-stream.Quotes():
			if !ok {
				return nil
			}
			observability.DefaultMetrics.QuotesReceived.Inc()
			fmt.Printf("%s  %-6s bid %.2f x%d  ask %.2f x%d\n",
				q.Timestamp.Format("15:04:05"), q.Symbol, q.BidPrice, q.BidSize, q.AskPrice, q.AskSize)
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

func buildStrategyConfigs(strategyType string) ([]domain.StrategyConfig, error) {
	momentum := domain.StrategyConfig{StrategyType: domain.StrategyTypeMomentum}
	pullback := domain.StrategyConfig{StrategyType: domain.StrategyTypePullback}

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

func loadBars(ctx context.Context, barStore storage.BarStore, csvDir, symbol string) ([]*domain.Bar, error) {
	if csvDir != "" {
		return marketdata.LoadFile(fmt.Sprintf("%s/%s.csv", csvDir, symbol), symbol)
	}
	return barStore.GetBySymbol(ctx, symbol)
}

// newBrokerClient builds a paper client. Scanning never needs the
// live gate.
func newBrokerClient(cfg *config.Config) (*broker.Client, error) {
	return broker.NewClient(broker.Config{
		BaseURL:   cfg.BrokerBaseURL,
		APIKey:    cfg.BrokerAPIKey,
		SecretKey: cfg.BrokerSecretKey,
		Paper:     true,
		LongOnly:  true,
	})
}

func fetchAccountState(ctx context.Context, client *broker.Client) (float64, []risk.OpenPosition, error) {
	account, err := client.GetAccount(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("get account: %w", err)
	}

	positions, err := client.GetPositions(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("get positions: %w", err)
	}

	open := make([]risk.OpenPosition, 0, len(positions))
	for _, p := range positions {
		open = append(open, risk.OpenPosition{
			Symbol:          p.Symbol,
			Shares:          p.Qty,
			MarketValue:     p.MarketValue,
			UnrealizedPLPct: p.UnrealizedPLPct,
		})
	}
	return account.Equity, open, nil
}

func printScanResults(results []orchestrator.ScanResult) {
	if len(results) == 0 {
		fmt.Println("No setups detected.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SCAN RESULTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		"Symbol", "Setup", "Entry", "Stop", "Target", "Shares", "Conf", "Action", "Reason",
	})

	for _, r := range results {
		t.AppendRow(table.Row{
			r.Setup.Symbol,
			r.Setup.SetupName,
			fmt.Sprintf("$%.2f", r.Setup.Entry),
			fmt.Sprintf("$%.2f", r.Setup.Stop),
			fmt.Sprintf("$%.2f", r.Setup.Target),
			r.Sizing.Shares,
			fmt.Sprintf("%.2f", r.Setup.Confidence),
			r.Action,
			strings.Join(r.Reasons, "; "),
		})
	}
	t.Render()
}
