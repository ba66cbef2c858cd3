package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/kalshi-watch/internal/book"
)

func TestParseSnapshot(t *testing.T) {
	raw := []byte(`{"type":"orderbook_snapshot","msg":{"yes":[[30,100],[25,50]],"no":[[65,200]]}}`)

	msg, terminal, err := parseMessage(raw)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.False(t, terminal)
	assert.Equal(t, KindSnapshot, msg.Kind)
	assert.Equal(t, []book.Level{{Price: 30, Quantity: 100}, {Price: 25, Quantity: 50}}, msg.Yes)
	assert.Equal(t, []book.Level{{Price: 65, Quantity: 200}}, msg.No)
}

func TestParseDelta(t *testing.T) {
	raw := []byte(`{"type":"orderbook_delta","msg":{"side":"yes","price":30,"delta":-40}}`)

	msg, terminal, err := parseMessage(raw)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.False(t, terminal)
	assert.Equal(t, KindDelta, msg.Kind)
	assert.Equal(t, "yes", msg.Side)
	assert.Equal(t, 30, msg.Price)
	assert.Equal(t, -40, msg.Delta)
}

func TestParseTicker(t *testing.T) {
	t.Run("price field", func(t *testing.T) {
		msg, _, err := parseMessage([]byte(`{"type":"ticker","msg":{"price":37}}`))
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, KindLastPrice, msg.Kind)
		assert.Equal(t, 37, msg.LastPrice)
	})

	t.Run("last_price fallback", func(t *testing.T) {
		msg, _, err := parseMessage([]byte(`{"type":"ticker","msg":{"last_price":42}}`))
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, 42, msg.LastPrice)
	})

	t.Run("neither present", func(t *testing.T) {
		msg, _, err := parseMessage([]byte(`{"type":"ticker","msg":{}}`))
		require.NoError(t, err)
		assert.Nil(t, msg)
	})
}

func TestParseServerError(t *testing.T) {
	raw := []byte(`{"type":"error","msg":{"code":6,"msg":"Already subscribed"}}`)

	msg, terminal, err := parseMessage(raw)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.True(t, terminal)
	assert.True(t, msg.Terminal)
	assert.Equal(t, KindStatus, msg.Kind)
	assert.Contains(t, msg.Status, "Already subscribed")
}

func TestParseIgnoresAcks(t *testing.T) {
	for _, raw := range []string{
		`{"type":"subscribed","msg":{"channel":"orderbook_delta","sid":1}}`,
		`{"type":"heartbeat"}`,
	} {
		msg, terminal, err := parseMessage([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, msg)
		assert.False(t, terminal)
	}
}

func TestParseMalformedFrame(t *testing.T) {
	_, _, err := parseMessage([]byte(`{"type":"orderbook_delta","msg":{"side":`))
	assert.Error(t, err)
}

// wsEchoServer upgrades one connection, captures the subscribe frame,
// then serves the canned frames and closes.
func wsEchoServer(t *testing.T, frames []string, gotSubscribe chan<- []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, sub, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		gotSubscribe <- sub

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
}

func TestSessionStreamsAndSubscribes(t *testing.T) {
	gotSubscribe := make(chan []byte, 1)
	srv := wsEchoServer(t, []string{
		`{"type":"orderbook_snapshot","msg":{"yes":[[30,100]],"no":[[65,200]]}}`,
		`{"type":"orderbook_delta","msg":{"side":"no","price":65,"delta":10}}`,
	}, gotSubscribe)
	defer srv.Close()

	cfg := DefaultSessionConfig("ws"+strings.TrimPrefix(srv.URL, "http"), "KXBTC15M-26AUG311215-15")
	headers := func() (http.Header, error) { return http.Header{}, nil }
	sess := NewSession(cfg, headers, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess.Start(ctx)
	defer sess.Stop()

	select {
	case raw := <-gotSubscribe:
		var sub subscribeCmd
		require.NoError(t, json.Unmarshal(raw, &sub))
		assert.Equal(t, 1, sub.ID)
		assert.Equal(t, "subscribe", sub.Cmd)
		assert.Equal(t, []string{"orderbook_delta", "ticker"}, sub.Params.Channels)
		assert.Equal(t, []string{"KXBTC15M-26AUG311215-15"}, sub.Params.MarketTickers)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe frame received")
	}

	want := []MessageKind{KindStatus, KindSnapshot, KindDelta}
	for _, kind := range want {
		select {
		case msg := <-sess.Messages():
			assert.Equal(t, kind, msg.Kind)
			if kind == KindStatus {
				assert.Equal(t, "Live", msg.Status)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %v", kind)
		}
	}
}

func TestSessionReconnectsAfterDrop(t *testing.T) {
	var mu sync.Mutex
	conns := 0
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		mu.Lock()
		conns++
		n := conns
		mu.Unlock()

		// Drop the first connection before serving anything.
		if n == 1 {
			conn.Close()
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"orderbook_snapshot","msg":{"yes":[[30,100]],"no":[[65,200]]}}`)); err != nil {
			return
		}
		conn.ReadMessage()
	}))
	defer srv.Close()

	cfg := DefaultSessionConfig("ws"+strings.TrimPrefix(srv.URL, "http"), "KXBTC15M-26AUG311215-15")
	cfg.ReconnectDelay = 20 * time.Millisecond
	headers := func() (http.Header, error) { return http.Header{}, nil }
	sess := NewSession(cfg, headers, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess.Start(ctx)
	defer sess.Stop()

	sawReconnect := false
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-sess.Messages():
			if msg.Kind == KindStatus && strings.HasPrefix(msg.Status, "Reconnecting") {
				sawReconnect = true
			}
			if msg.Kind == KindSnapshot {
				assert.True(t, sawReconnect, "expected a reconnect status before recovery")
				require.Eventually(t, func() bool {
					return sess.State() == StateLive
				}, 2*time.Second, 10*time.Millisecond)
				mu.Lock()
				assert.GreaterOrEqual(t, conns, 2)
				mu.Unlock()
				return
			}
		case <-deadline:
			t.Fatal("session never recovered from the dropped connection")
		}
	}
}

func TestSessionStopsOnServerError(t *testing.T) {
	gotSubscribe := make(chan []byte, 1)
	srv := wsEchoServer(t, []string{
		`{"type":"error","msg":{"code":6,"msg":"Market not found"}}`,
	}, gotSubscribe)
	defer srv.Close()

	cfg := DefaultSessionConfig("ws"+strings.TrimPrefix(srv.URL, "http"), "KXBTC15M-26AUG311215-15")
	headers := func() (http.Header, error) { return http.Header{}, nil }
	sess := NewSession(cfg, headers, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess.Start(ctx)
	defer sess.Stop()

	<-gotSubscribe

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sess.Messages():
			if msg.Terminal {
				assert.Contains(t, msg.Status, "Market not found")
				// No reconnect after a protocol rejection.
				require.Eventually(t, func() bool {
					return sess.State() == StateTerminated
				}, 2*time.Second, 10*time.Millisecond)
				return
			}
		case <-deadline:
			t.Fatal("no terminal status received")
		}
	}
}
