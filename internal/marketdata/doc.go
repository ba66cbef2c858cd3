// Package marketdata tracks the reference-asset spot price, the
// contract strike, and the rolling sample window behind the derived
// momentum and volatility metrics.
//
// One Context exists per reference instrument, owned by the application
// for its full lifetime. It is written by a single poller and read by
// any number of signal engines through synchronized accessors; readers
// tolerate "no value yet".
package marketdata
