package broker

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// GetAccount retrieves the account snapshot.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var wire accountWire
	if err := c.do(ctx, http.MethodGet, "/v2/account", nil, &wire); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return wire.toAccount(), nil
}

// GetPositions retrieves all open positions.
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	var wires []positionWire
	if err := c.do(ctx, http.MethodGet, "/v2/positions", nil, &wires); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}

	positions := make([]Position, len(wires))
	for i := range wires {
		positions[i] = wires[i].toPosition()
	}
	return positions, nil
}

// PlaceOrder submits a market or limit order after local validation.
// Under a long-only configuration, a sell must close an existing
// position or it is rejected with ErrShortingNotAllowed.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Qty <= 0 {
		return nil, fmt.Errorf("%w: quantity %d", ErrInvalidOrder, req.Qty)
	}
	if req.Side != SideBuy && req.Side != SideSell {
		return nil, fmt.Errorf("%w: side %q", ErrInvalidOrder, req.Side)
	}
	if req.Type == "" {
		req.Type = OrderTypeMarket
	}
	if req.Type != OrderTypeMarket && req.Type != OrderTypeLimit {
		return nil, fmt.Errorf("%w: order type %q", ErrInvalidOrder, req.Type)
	}
	if req.Type == OrderTypeLimit && req.LimitPrice <= 0 {
		return nil, fmt.Errorf("%w: limit price required for limit orders", ErrInvalidOrder)
	}
	if req.TimeInForce == "" {
		req.TimeInForce = TIFDay
	}

	if c.longOnly && req.Side == SideSell {
		holding, err := c.holdsPosition(ctx, req.Symbol)
		if err != nil {
			return nil, err
		}
		if !holding {
			return nil, fmt.Errorf("%w: no open position in %s", ErrShortingNotAllowed, req.Symbol)
		}
	}

	wire := orderRequestWire{
		Symbol:      req.Symbol,
		Qty:         strconv.Itoa(req.Qty),
		Side:        req.Side,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
	}
	if req.Type == OrderTypeLimit {
		wire.LimitPrice = formatDecimal(req.LimitPrice)
	}

	var resp orderWire
	if err := c.do(ctx, http.MethodPost, "/v2/orders", &wire, &resp); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	return resp.toOrder(), nil
}

// PlaceBracketOrder submits an entry limit order with attached stop and
// target legs.
func (c *Client) PlaceBracketOrder(ctx context.Context, req BracketOrderRequest) (*Order, error) {
	if req.Qty <= 0 {
		return nil, fmt.Errorf("%w: quantity %d", ErrInvalidOrder, req.Qty)
	}
	if req.LimitPrice <= 0 || req.StopPrice <= 0 || req.TargetPrice <= 0 {
		return nil, fmt.Errorf("%w: bracket prices must be positive", ErrInvalidOrder)
	}
	if req.StopPrice >= req.LimitPrice {
		return nil, fmt.Errorf("%w: stop %.2f not below entry %.2f", ErrInvalidOrder, req.StopPrice, req.LimitPrice)
	}
	if req.TargetPrice <= req.LimitPrice {
		return nil, fmt.Errorf("%w: target %.2f not above entry %.2f", ErrInvalidOrder, req.TargetPrice, req.LimitPrice)
	}

	wire := orderRequestWire{
		Symbol:      req.Symbol,
		Qty:         strconv.Itoa(req.Qty),
		Side:        SideBuy,
		Type:        OrderTypeLimit,
		TimeInForce: TIFDay,
		LimitPrice:  formatDecimal(req.LimitPrice),
		OrderClass:  "bracket",
		TakeProfit:  &takeProfitWire{LimitPrice: formatDecimal(req.TargetPrice)},
		StopLoss:    &stopLossWire{StopPrice: formatDecimal(req.StopPrice)},
	}

	var resp orderWire
	if err := c.do(ctx, http.MethodPost, "/v2/orders", &wire, &resp); err != nil {
		return nil, fmt.Errorf("place bracket order: %w", err)
	}
	return resp.toOrder(), nil
}

// GetOrder retrieves order details by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var wire orderWire
	if err := c.do(ctx, http.MethodGet, "/v2/orders/"+orderID, nil, &wire); err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return wire.toOrder(), nil
}

// CancelOrder cancels a single order by ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.do(ctx, http.MethodDelete, "/v2/orders/"+orderID, nil, nil); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	return nil
}

// CancelAllOrders cancels all open orders.
func (c *Client) CancelAllOrders(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/v2/orders", nil, nil); err != nil {
		return fmt.Errorf("cancel all orders: %w", err)
	}
	return nil
}

// FlattenPosition closes the position in one symbol completely.
func (c *Client) FlattenPosition(ctx context.Context, symbol string) error {
	if err := c.do(ctx, http.MethodDelete, "/v2/positions/"+symbol, nil, nil); err != nil {
		return fmt.Errorf("flatten position: %w", err)
	}
	return nil
}

// FlattenAllPositions closes every open position and cancels open orders.
func (c *Client) FlattenAllPositions(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/v2/positions?cancel_orders=true", nil, nil); err != nil {
		return fmt.Errorf("flatten all positions: %w", err)
	}
	return nil
}

// holdsPosition checks for an open long position in symbol.
func (c *Client) holdsPosition(ctx context.Context, symbol string) (bool, error) {
	positions, err := c.GetPositions(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range positions {
		if p.Symbol == symbol && p.Qty > 0 {
			return true, nil
		}
	}
	return false, nil
}
