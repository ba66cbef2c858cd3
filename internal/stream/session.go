package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// HeaderProvider produces signed handshake headers. The signing
// algorithm is opaque to the session.
type HeaderProvider func() (http.Header, error)

// SessionConfig holds streaming session settings.
type SessionConfig struct {
	URL              string        // WebSocket endpoint
	Ticker           string        // market ticker to subscribe
	Channels         []string      // channel set, e.g. orderbook_delta, ticker
	ReconnectDelay   time.Duration // fixed backoff between attempts (default: 5s)
	HandshakeTimeout time.Duration // dial timeout (default: 10s)
	BufferSize       int           // output queue capacity (default: 256)
}

// DefaultSessionConfig returns defaults for the given endpoint and ticker.
func DefaultSessionConfig(url, ticker string) SessionConfig {
	return SessionConfig{
		URL:              url,
		Ticker:           ticker,
		Channels:         []string{"orderbook_delta", "ticker"},
		ReconnectDelay:   5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		BufferSize:       256,
	}
}

// errTerminal marks a protocol-level rejection; the session must not
// reconnect.
var errTerminal = errors.New("terminal protocol error")

// Session streams one contract's book updates. All output, including
// every failure, flows through Messages; Session never returns errors
// to the consumer.
type Session struct {
	cfg     SessionConfig
	headers HeaderProvider
	logger  *slog.Logger

	out    chan Message
	state  atomic.Int32
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a session. Start must be called to connect.
func NewSession(cfg SessionConfig, headers HeaderProvider, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	return &Session{
		cfg:     cfg,
		headers: headers,
		logger:  logger.With("ticker", cfg.Ticker),
		out:     make(chan Message, cfg.BufferSize),
	}
}

// Start launches the session goroutine.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop cancels the session and waits for it to wind down. Cancellation
// is silent: no error status is emitted.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Messages returns the output queue.
func (s *Session) Messages() <-chan Message {
	return s.out
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()
	defer s.state.Store(int32(StateTerminated))

	for {
		s.state.Store(int32(StateConnecting))

		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, errTerminal) {
			return
		}

		s.state.Store(int32(StateReconnectWait))
		s.emit(Message{
			Kind:       KindStatus,
			ReceivedAt: time.Now(),
			Status:     fmt.Sprintf("Reconnecting (%v)", err),
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// runOnce performs one connect/subscribe/read cycle. It returns
// errTerminal on an explicit server error message and any other error
// on network or decode failures.
func (s *Session) runOnce(ctx context.Context) error {
	header, err := s.headers()
	if err != nil {
		return fmt.Errorf("sign handshake: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Unblock the read loop on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	sub := subscribeCmd{
		ID:  1,
		Cmd: "subscribe",
		Params: subscribeParams{
			Channels:      s.cfg.Channels,
			MarketTickers: []string{s.cfg.Ticker},
		},
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	s.state.Store(int32(StateLive))
	s.emit(Message{Kind: KindStatus, ReceivedAt: time.Now(), Status: "Live"})
	s.logger.Debug("session live", "channels", s.cfg.Channels)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		msg, terminal, err := parseMessage(raw)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if msg != nil {
			s.emit(*msg)
		}
		if terminal {
			return errTerminal
		}
	}
}

// parseMessage converts one raw frame to a Message. Unrecognized types
// (subscription acks and the like) yield a nil message.
func parseMessage(raw []byte) (*Message, bool, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, err
	}

	now := time.Now()

	switch env.Type {
	case "orderbook_snapshot":
		var wire snapshotWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, false, err
		}
		return &Message{
			Kind:       KindSnapshot,
			ReceivedAt: now,
			Yes:        parseLevels(wire.Msg.Yes),
			No:         parseLevels(wire.Msg.No),
		}, false, nil

	case "orderbook_delta":
		var wire deltaWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, false, err
		}
		return &Message{
			Kind:       KindDelta,
			ReceivedAt: now,
			Side:       wire.Msg.Side,
			Price:      wire.Msg.Price,
			Delta:      wire.Msg.Delta,
		}, false, nil

	case "ticker":
		var wire tickerWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, false, err
		}
		price := wire.Msg.Price
		if price == nil {
			price = wire.Msg.LastPrice
		}
		if price == nil {
			return nil, false, nil
		}
		return &Message{
			Kind:       KindLastPrice,
			ReceivedAt: now,
			LastPrice:  *price,
		}, false, nil

	case "error":
		var wire errorWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, false, err
		}
		return &Message{
			Kind:       KindStatus,
			ReceivedAt: now,
			Status:     fmt.Sprintf("WS error: %s", wire.Msg),
			Terminal:   true,
		}, true, nil

	default:
		return nil, false, nil
	}
}

// emit forwards a message, dropping it if the consumer queue is full so
// a stalled consumer cannot wedge the read loop.
func (s *Session) emit(msg Message) {
	select {
	case s.out <- msg:
	default:
		s.logger.Warn("output queue full, dropping message", "kind", msg.Kind)
	}
}
