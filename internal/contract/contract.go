// Package contract computes the active fixed-duration contract for a
// rolling series and its ticker encoding.
//
// Tickers follow the exchange's short-horizon series format
// PREFIX-{YY}{MON}{DD}{HH}{MM}-{MM}: 2-digit year, 3-letter uppercase
// month, day, 24h hour and expiry minute, with the minute repeated as
// the trailing strike segment.
package contract

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPrefix is the BTC 15-minute series.
const DefaultPrefix = "KXBTC15M"

// DefaultDuration is the contract length of the default series.
const DefaultDuration = 15 * time.Minute

// Contract is one time-boxed binary market instance.
type Contract struct {
	Ticker string
	Start  time.Time
	Expiry time.Time
}

// Compute returns the contract active at now: its expiry is the next
// boundary of duration strictly after now, carrying into the next hour
// when the minute multiple reaches 60. duration must be a whole number
// of minutes that divides 60.
func Compute(now time.Time, prefix string, duration time.Duration) Contract {
	mins := int(duration / time.Minute)
	next := (now.Minute()/mins + 1) * mins

	var expiry time.Time
	if next >= 60 {
		expiry = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).
			Add(time.Hour)
	} else {
		expiry = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), next, 0, 0, now.Location())
	}

	return Contract{
		Ticker: Ticker(prefix, expiry),
		Start:  expiry.Add(-duration),
		Expiry: expiry,
	}
}

// Ticker encodes the series ticker for a contract expiring at expiry.
func Ticker(prefix string, expiry time.Time) string {
	return fmt.Sprintf("%s-%s%s%s%s%s-%s",
		prefix,
		expiry.Format("06"),
		strings.ToUpper(expiry.Format("Jan")),
		expiry.Format("02"),
		expiry.Format("15"),
		expiry.Format("04"),
		expiry.Format("04"),
	)
}

// Remaining returns the time until expiry; negative once expired.
func (c Contract) Remaining(now time.Time) time.Duration {
	return c.Expiry.Sub(now)
}

// Elapsed returns the time since contract start, floored at zero.
func (c Contract) Elapsed(now time.Time) time.Duration {
	d := now.Sub(c.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether now has reached the expiry boundary.
func (c Contract) Expired(now time.Time) bool {
	return !now.Before(c.Expiry)
}

// Zero reports whether the contract is the uninitialized value.
func (c Contract) Zero() bool {
	return c.Ticker == ""
}
