// Package watch runs the consumer loop that ties the streams, the
// signal engines, and the contract scheduler together.
//
// One goroutine owns every order book, signal engine, and the active
// contract. Stream sessions, the spot poller, and the strike fetcher
// only communicate with it through channels and the synchronized
// market-data context, so none of that state needs locks. The loop
// drains stream queues every 80 ms, emits log records every 500 ms,
// and checks for contract expiry every second.
package watch
