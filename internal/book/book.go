package book

// Side identifies one of the two complementary outcomes of a binary market.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// ParseSide converts a wire-format side string to a Side.
// Returns false for anything other than "yes" or "no".
func ParseSide(s string) (Side, bool) {
	switch s {
	case "yes":
		return SideYes, true
	case "no":
		return SideNo, true
	default:
		return "", false
	}
}

// Opposite returns the complementary side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// String returns the wire-format side name.
func (s Side) String() string { return string(s) }

// Upper returns the side name in display form ("YES" / "NO").
func (s Side) Upper() string {
	if s == SideYes {
		return "YES"
	}
	return "NO"
}

// Level is a single price level in a snapshot.
type Level struct {
	Price    int // cents, 1-99
	Quantity int // contracts
}

// Book is the order book for one binary market.
type Book struct {
	Ticker string

	yes map[int]int
	no  map[int]int
}

// New creates an empty book for the given market ticker.
func New(ticker string) *Book {
	return &Book{
		Ticker: ticker,
		yes:    make(map[int]int),
		no:     make(map[int]int),
	}
}

// ApplySnapshot replaces both sides wholesale. A snapshot is an
// authoritative reset: any prior state is discarded.
func (b *Book) ApplySnapshot(yes, no []Level) {
	b.yes = make(map[int]int, len(yes))
	for _, l := range yes {
		if l.Quantity > 0 {
			b.yes[l.Price] = l.Quantity
		}
	}
	b.no = make(map[int]int, len(no))
	for _, l := range no {
		if l.Quantity > 0 {
			b.no[l.Price] = l.Quantity
		}
	}
}

// ApplyDelta applies a signed quantity change to one price level.
// A level whose quantity reaches <= 0 is removed. Returns false if the
// side is not one of the two known values; the delta is then ignored.
func (b *Book) ApplyDelta(side Side, price, delta int) bool {
	m, ok := b.side(side)
	if !ok {
		return false
	}
	newQty := m[price] + delta
	if newQty <= 0 {
		delete(m, price)
	} else {
		m[price] = newQty
	}
	return true
}

// BestBid returns the highest bid price on the given side's own book,
// or false if the side is empty.
func (b *Book) BestBid(side Side) (int, bool) {
	m, ok := b.side(side)
	if !ok {
		return 0, false
	}
	return maxKey(m)
}

// BestAsk returns the lowest executable ask for the given side, derived
// as 100 minus the opposite side's best bid. False if the opposite side
// is empty.
func (b *Book) BestAsk(side Side) (int, bool) {
	m, ok := b.side(side.Opposite())
	if !ok {
		return 0, false
	}
	max, found := maxKey(m)
	if !found {
		return 0, false
	}
	return 100 - max, true
}

// Spread returns bestAsk - bestBid, or false if either is unavailable.
func (b *Book) Spread(side Side) (int, bool) {
	bid, okB := b.BestBid(side)
	ask, okA := b.BestAsk(side)
	if !okB || !okA {
		return 0, false
	}
	return ask - bid, true
}

// QuantityAt returns the resting quantity at a price on the given
// side's own book, or 0 if the level is absent.
func (b *Book) QuantityAt(side Side, price int) int {
	m, ok := b.side(side)
	if !ok {
		return 0
	}
	return m[price]
}

// DepthAtBest returns the quantities resting at the best bid and best
// ask for the given side. The ask quantity comes from the opposite
// side's best bid level, matching the ask derivation.
func (b *Book) DepthAtBest(side Side) (bidQty, askQty int) {
	if bid, ok := b.BestBid(side); ok {
		bidQty = b.QuantityAt(side, bid)
	}
	opp, _ := b.side(side.Opposite())
	if oppBest, ok := maxKey(opp); ok {
		askQty = opp[oppBest]
	}
	return bidQty, askQty
}

// Empty reports whether the given side's own book has no levels.
func (b *Book) Empty(side Side) bool {
	m, ok := b.side(side)
	return !ok || len(m) == 0
}

func (b *Book) side(side Side) (map[int]int, bool) {
	switch side {
	case SideYes:
		return b.yes, true
	case SideNo:
		return b.no, true
	default:
		return nil, false
	}
}

func maxKey(m map[int]int) (int, bool) {
	if len(m) == 0 {
		return 0, false
	}
	best := 0
	for k := range m {
		if k > best {
			best = k
		}
	}
	return best, true
}
