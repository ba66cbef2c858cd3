package stream

import (
	"encoding/json"
	"time"

	"github.com/rickgao/kalshi-watch/internal/book"
)

// State is the session lifecycle state.
type State int32

const (
	StateConnecting State = iota
	StateLive
	StateReconnectWait
	StateTerminated
)

// String returns a display name for the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	case StateReconnectWait:
		return "reconnect_wait"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MessageKind discriminates session output messages.
type MessageKind int

const (
	// KindStatus carries a human-readable session status transition.
	KindStatus MessageKind = iota
	// KindSnapshot carries a full book replacement.
	KindSnapshot
	// KindDelta carries one signed quantity change.
	KindDelta
	// KindLastPrice carries the last traded price from the ticker channel.
	KindLastPrice
)

// Message is one parsed item from the session output queue.
type Message struct {
	Kind       MessageKind
	ReceivedAt time.Time

	// KindStatus
	Status   string
	Terminal bool // server rejected the subscription; session is over

	// KindSnapshot
	Yes []book.Level
	No  []book.Level

	// KindDelta
	Side  string // raw wire value; consumer decides the unknown-side policy
	Price int
	Delta int

	// KindLastPrice
	LastPrice int
}

// Wire formats.

type subscribeCmd struct {
	ID     int             `json:"id"`
	Cmd    string          `json:"cmd"`
	Params subscribeParams `json:"params"`
}

type subscribeParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers"`
}

type envelope struct {
	Type string `json:"type"`
}

type snapshotWire struct {
	Msg struct {
		Yes [][]int `json:"yes"`
		No  [][]int `json:"no"`
	} `json:"msg"`
}

type deltaWire struct {
	Msg struct {
		Side  string `json:"side"`
		Price int    `json:"price"`
		Delta int    `json:"delta"`
	} `json:"msg"`
}

type tickerWire struct {
	Msg struct {
		Price     *int `json:"price"`
		LastPrice *int `json:"last_price"`
	} `json:"msg"`
}

// errorWire keeps the server's error payload opaque; it is only ever
// surfaced as status text.
type errorWire struct {
	Msg json.RawMessage `json:"msg"`
}

func parseLevels(pairs [][]int) []book.Level {
	levels := make([]book.Level, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		levels = append(levels, book.Level{Price: p[0], Quantity: p[1]})
	}
	return levels
}
