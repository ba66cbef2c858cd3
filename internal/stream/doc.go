// Package stream implements the WebSocket streaming session for one
// contract. A session owns its subscribe/reconnect/parse cycle and
// never surfaces an error to its consumer: every failure becomes a
// status message on the output channel.
//
// Lifecycle: CONNECTING -> LIVE -> (network failure) RECONNECT_WAIT ->
// CONNECTING ... A protocol-level error message from the server is
// terminal for the session; cancellation ends it silently from any
// state.
package stream
