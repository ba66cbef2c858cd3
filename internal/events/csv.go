package events

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rickgao/kalshi-watch/internal/book"
)

// CSVConfig holds session-file settings.
type CSVConfig struct {
	Dir         string // output directory, created on first write
	SeriesLabel string // human series name, e.g. "BTC 15 Minute"
	FileTag     string // filename suffix, e.g. "btc15"
	Rules       string // rules line written into the file header
}

// CSVSink buffers one contract's rows per side and writes a session
// file when the contract ends. Partial first contracts are dropped, not
// written.
type CSVSink struct {
	cfg    CSVConfig
	logger *slog.Logger

	rows map[book.Side][]Record
}

// NewCSVSink creates a sink writing under cfg.Dir.
func NewCSVSink(cfg CSVConfig, logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FileTag == "" {
		cfg.FileTag = "session"
	}
	return &CSVSink{
		cfg:    cfg,
		logger: logger,
		rows:   make(map[book.Side][]Record),
	}
}

// OnRecord buffers one periodic row.
func (s *CSVSink) OnRecord(side string, rec Record) {
	sd, ok := book.ParseSide(side)
	if !ok {
		return
	}
	s.rows[sd] = append(s.rows[sd], rec)
}

// OnEvent buffers one highlighted event row.
func (s *CSVSink) OnEvent(e Event) {
	s.rows[e.Side] = append(s.rows[e.Side], eventRecord(e))
}

// OnContractEnd appends the summary row and flushes the side's buffer
// to a session file.
func (s *CSVSink) OnContractEnd(sum ContractSummary) {
	rows := append(s.rows[sum.Side], summaryRecord(sum))
	s.rows[sum.Side] = nil

	if sum.Partial {
		s.logger.Debug("skipping partial contract", "contract", sum.Contract, "side", sum.Side)
		return
	}
	if len(rows) == 0 {
		return
	}
	if err := s.write(sum, rows); err != nil {
		s.logger.Error("session save failed", "contract", sum.Contract, "error", err)
	}
}

func (s *CSVSink) write(sum ContractSummary, rows []Record) error {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.csv",
		sum.Start.Format("2006-01-02_1504"), sum.Side.Upper(), s.cfg.FileTag)
	path := filepath.Join(s.cfg.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Session: %s\n", sessionLabel(sum.Start, sum.Expiry, s.cfg.SeriesLabel))
	fmt.Fprintf(f, "# Side: %s\n", sum.Side.Upper())
	fmt.Fprintf(f, "# Rules: %s\n", s.cfg.Rules)
	fmt.Fprintf(f, "# Ticker: %s\n", sum.Contract)

	w := csv.NewWriter(f)
	if err := w.Write(Header()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.Strings()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	s.logger.Info("session saved", "path", path, "rows", len(rows))
	return nil
}

// sessionLabel renders "Monday 8/31/2026 12:00-12:15 PM BTC 15 Minute",
// spelling out both meridiems when the window crosses noon or midnight.
func sessionLabel(start, expiry time.Time, series string) string {
	f12 := func(t time.Time) (hm string, ampm string) {
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		ampm = "AM"
		if t.Hour() >= 12 {
			ampm = "PM"
		}
		return fmt.Sprintf("%d:%02d", h, t.Minute()), ampm
	}

	day := start.Weekday().String()
	date := fmt.Sprintf("%d/%d/%d", int(start.Month()), start.Day(), start.Year())
	sHM, sAP := f12(start)
	eHM, eAP := f12(expiry)

	if sAP == eAP {
		return fmt.Sprintf("%s %s %s-%s %s %s", day, date, sHM, eHM, eAP, series)
	}
	return fmt.Sprintf("%s %s %s %s-%s %s %s", day, date, sHM, sAP, eHM, eAP, series)
}

// eventRecord places an event in the row schema: price in the ask
// column, dwell in the bid-quantity column, everything else dashed.
func eventRecord(e Event) Record {
	rec := Record{
		Time:      e.At.Format("15:04:05"),
		Session:   FormatElapsed(e.SessionElapsed),
		Contract:  e.Contract,
		Bid:       Placeholder,
		Ask:       Placeholder,
		Spread:    Placeholder,
		Mid:       Placeholder,
		BidQty:    FormatDwell(e.Dwell),
		AskQty:    Placeholder,
		Last:      Placeholder,
		Reference: Placeholder,
		Strike:    Placeholder,
		Delta:     Placeholder,
		ChangePct: Placeholder,
		Event:     e.Label(),
	}
	if e.HasPrice {
		rec.Ask = strconv.Itoa(e.Price)
	}
	if e.ReferenceChangePct != nil {
		rec.ChangePct = fmt.Sprintf("%+.3f%%", *e.ReferenceChangePct)
	}
	if e.StrikeDelta != nil {
		rec.Delta = fmt.Sprintf("%+.2f", *e.StrikeDelta)
	}
	return rec
}

// summaryRecord renders the contract-end row. The contract column
// carries the outcome text.
func summaryRecord(sum ContractSummary) Record {
	return Record{
		Time:      sum.At.Format("15:04:05"),
		Session:   FormatElapsed(sum.SessionElapsed),
		Contract:  sum.Result(),
		Bid:       Placeholder,
		Ask:       Placeholder,
		Spread:    Placeholder,
		Mid:       Placeholder,
		BidQty:    Placeholder,
		AskQty:    Placeholder,
		Last:      Placeholder,
		Reference: Placeholder,
		Strike:    Placeholder,
		Delta:     Placeholder,
		ChangePct: Placeholder,
		Event:     sum.Label(),
	}
}
