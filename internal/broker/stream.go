package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Quote is one top-of-book quote update.
type Quote struct {
	Symbol    string
	BidPrice  float64
	BidSize   int
	AskPrice  float64
	AskSize   int
	Timestamp time.Time
}

// StreamConfig configures quote stream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default quote stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// QuoteStream delivers live quotes over a websocket with automatic
// reconnect and resubscribe.
type QuoteStream struct {
	endpoint  string
	apiKey    string
	secretKey string
	config    StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// quotes is the single delivery channel; buffer absorbs bursts,
	// blocking send ensures no quote loss.
	quotes chan Quote

	// symbols stores active subscriptions for resubscription after reconnect
	symbols   map[string]struct{}
	symbolsMu sync.RWMutex

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// NewQuoteStream connects, authenticates, and starts the read and ping
// loops.
func NewQuoteStream(ctx context.Context, endpoint, apiKey, secretKey string, config *StreamConfig) (*QuoteStream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &QuoteStream{
		endpoint:  endpoint,
		apiKey:    apiKey,
		secretKey: secretKey,
		config:    cfg,
		quotes:    make(chan Quote, 10000),
		symbols:   make(map[string]struct{}),
		done:      make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// Quotes returns the delivery channel. Closed when the stream closes.
func (s *QuoteStream) Quotes() <-chan Quote {
	return s.quotes
}

// connect dials and completes the auth handshake before publishing the
// connection, so the read loop only ever sees an authenticated conn.
func (s *QuoteStream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	if err := s.authenticate(conn); err != nil {
		conn.Close()
		return err
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

// authenticate sends credentials and waits for the authenticated ack.
func (s *QuoteStream) authenticate(conn *websocket.Conn) error {
	auth := streamRequest{
		Action: "auth",
		Key:    s.apiKey,
		Secret: s.secretKey,
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("write auth: %w", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read auth response: %w", err)
		}

		var msgs []streamMessage
		if err := json.Unmarshal(message, &msgs); err != nil {
			continue
		}
		for _, m := range msgs {
			switch {
			case m.Type == "success" && m.Msg == "authenticated":
				return nil
			case m.Type == "error":
				return fmt.Errorf("stream auth failed: %s", m.Msg)
			}
		}
	}
}

// Subscribe requests quote updates for the given symbols.
func (s *QuoteStream) Subscribe(symbols ...string) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	if len(symbols) == 0 {
		return nil
	}

	if err := s.writeSubscribe(symbols); err != nil {
		return err
	}

	s.symbolsMu.Lock()
	for _, sym := range symbols {
		s.symbols[sym] = struct{}{}
	}
	s.symbolsMu.Unlock()
	return nil
}

// writeSubscribe sends a subscribe frame without recording symbols.
func (s *QuoteStream) writeSubscribe(symbols []string) error {
	req := streamRequest{
		Action: "subscribe",
		Quotes: symbols,
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the stream and the quotes channel.
func (s *QuoteStream) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.quotes)
	return nil
}

// readLoop reads messages and dispatches quotes until closed.
func (s *QuoteStream) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			// Connection error - attempt reconnect with exponential backoff
			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		s.handleMessage(message)
	}
}

// reconnect re-dials, re-authenticates, and resubscribes.
func (s *QuoteStream) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	// Close existing connection
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	s.symbolsMu.RLock()
	symbols := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		symbols = append(symbols, sym)
	}
	s.symbolsMu.RUnlock()

	if len(symbols) > 0 {
		s.writeSubscribe(symbols)
	}
}

// handleMessage parses a frame and forwards any quotes it carries.
func (s *QuoteStream) handleMessage(message []byte) {
	var msgs []streamMessage
	if err := json.Unmarshal(message, &msgs); err != nil {
		return
	}

	for _, m := range msgs {
		if m.Type != "q" {
			continue
		}

		q := Quote{
			Symbol:    m.Symbol,
			BidPrice:  m.BidPrice,
			BidSize:   m.BidSize,
			AskPrice:  m.AskPrice,
			AskSize:   m.AskSize,
			Timestamp: m.Timestamp,
		}

		// Block until we can send - never drop quotes
		select {
		case s.quotes <- q:
		case <-s.done:
			return
		}
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (s *QuoteStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			s.connMu.Unlock()
		}
	}
}

// Stream message types

type streamRequest struct {
	Action string   `json:"action"`
	Key    string   `json:"key,omitempty"`
	Secret string   `json:"secret,omitempty"`
	Quotes []string `json:"quotes,omitempty"`
}

type streamMessage struct {
	Type      string    `json:"T"`
	Msg       string    `json:"msg,omitempty"`
	Symbol    string    `json:"S,omitempty"`
	BidPrice  float64   `json:"bp,omitempty"`
	BidSize   int       `json:"bs,omitempty"`
	AskPrice  float64   `json:"ap,omitempty"`
	AskSize   int       `json:"as,omitempty"`
	Timestamp time.Time `json:"t,omitempty"`
}
