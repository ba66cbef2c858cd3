// Package signal implements the entry/target/stop-loss cycle tracker
// that watches one side of a contract's order book.
//
// The engine is a small state machine with three states. In the idle
// state it waits for the ask to drop to the entry threshold. Once
// triggered it waits for either the bid to reach the target (one
// completed cycle, back to idle) or the ask to collapse through the
// stop threshold (stopped out, terminal for the rest of the contract).
// All state is owned by a single goroutine; the engine itself does no
// locking.
package signal
