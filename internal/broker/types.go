package broker

import "strconv"

// Order side constants.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order type constants.
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// Time-in-force constants.
const (
	TIFDay = "day"
	TIFGTC = "gtc"
)

// Account is a snapshot of the trading account.
type Account struct {
	AccountNumber    string
	Status           string
	Cash             float64
	Equity           float64
	PortfolioValue   float64
	BuyingPower      float64
	PatternDayTrader bool
	TradingBlocked   bool
	AccountBlocked   bool
}

// Position is one open position.
type Position struct {
	Symbol          string
	Qty             int
	Side            string
	AvgEntryPrice   float64
	CurrentPrice    float64
	MarketValue     float64
	CostBasis       float64
	UnrealizedPL    float64
	UnrealizedPLPct float64
}

// Order is the broker's view of a submitted order.
type Order struct {
	OrderID        string
	Symbol         string
	Qty            int
	Side           string
	Type           string
	Status         string
	FilledQty      int
	FilledAvgPrice float64
}

// OrderRequest describes a simple market or limit order.
type OrderRequest struct {
	Symbol      string
	Side        string
	Qty         int
	Type        string
	LimitPrice  float64 // required for limit orders
	TimeInForce string  // defaults to day
}

// BracketOrderRequest describes an entry limit order with attached
// stop-loss and take-profit legs.
type BracketOrderRequest struct {
	Symbol      string
	Qty         int
	LimitPrice  float64
	StopPrice   float64
	TargetPrice float64
}

// Wire types. The API encodes decimals as JSON strings.

type accountWire struct {
	AccountNumber    string `json:"account_number"`
	Status           string `json:"status"`
	Cash             string `json:"cash"`
	Equity           string `json:"equity"`
	PortfolioValue   string `json:"portfolio_value"`
	BuyingPower      string `json:"buying_power"`
	PatternDayTrader bool   `json:"pattern_day_trader"`
	TradingBlocked   bool   `json:"trading_blocked"`
	AccountBlocked   bool   `json:"account_blocked"`
}

func (w *accountWire) toAccount() *Account {
	return &Account{
		AccountNumber:    w.AccountNumber,
		Status:           w.Status,
		Cash:             parseDecimal(w.Cash),
		Equity:           parseDecimal(w.Equity),
		PortfolioValue:   parseDecimal(w.PortfolioValue),
		BuyingPower:      parseDecimal(w.BuyingPower),
		PatternDayTrader: w.PatternDayTrader,
		TradingBlocked:   w.TradingBlocked,
		AccountBlocked:   w.AccountBlocked,
	}
}

type positionWire struct {
	Symbol          string `json:"symbol"`
	Qty             string `json:"qty"`
	Side            string `json:"side"`
	AvgEntryPrice   string `json:"avg_entry_price"`
	CurrentPrice    string `json:"current_price"`
	MarketValue     string `json:"market_value"`
	CostBasis       string `json:"cost_basis"`
	UnrealizedPL    string `json:"unrealized_pl"`
	UnrealizedPLPct string `json:"unrealized_plpc"`
}

func (w *positionWire) toPosition() Position {
	return Position{
		Symbol:          w.Symbol,
		Qty:             parseQty(w.Qty),
		Side:            w.Side,
		AvgEntryPrice:   parseDecimal(w.AvgEntryPrice),
		CurrentPrice:    parseDecimal(w.CurrentPrice),
		MarketValue:     parseDecimal(w.MarketValue),
		CostBasis:       parseDecimal(w.CostBasis),
		UnrealizedPL:    parseDecimal(w.UnrealizedPL),
		UnrealizedPLPct: parseDecimal(w.UnrealizedPLPct),
	}
}

type orderWire struct {
	ID             string `json:"id"`
	Symbol         string `json:"symbol"`
	Qty            string `json:"qty"`
	Side           string `json:"side"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	FilledQty      string `json:"filled_qty"`
	FilledAvgPrice string `json:"filled_avg_price"`
}

func (w *orderWire) toOrder() *Order {
	return &Order{
		OrderID:        w.ID,
		Symbol:         w.Symbol,
		Qty:            parseQty(w.Qty),
		Side:           w.Side,
		Type:           w.Type,
		Status:         w.Status,
		FilledQty:      parseQty(w.FilledQty),
		FilledAvgPrice: parseDecimal(w.FilledAvgPrice),
	}
}

type orderRequestWire struct {
	Symbol      string          `json:"symbol"`
	Qty         string          `json:"qty"`
	Side        string          `json:"side"`
	Type        string          `json:"type"`
	TimeInForce string          `json:"time_in_force"`
	LimitPrice  string          `json:"limit_price,omitempty"`
	OrderClass  string          `json:"order_class,omitempty"`
	TakeProfit  *takeProfitWire `json:"take_profit,omitempty"`
	StopLoss    *stopLossWire   `json:"stop_loss,omitempty"`
}

type takeProfitWire struct {
	LimitPrice string `json:"limit_price"`
}

type stopLossWire struct {
	StopPrice string `json:"stop_price"`
}

// parseDecimal converts an API decimal string to float64, 0 on empty
// or malformed input.
func parseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseQty(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
