// Package events defines the signal event model and fans events out to
// registered sinks.
//
// Two delivery paths exist. Signal events (entry, target, stop loss,
// milestone) and contract-end summaries flow through the Router to
// every registered Sink in emission order, with no buffering or
// filtering. Periodic book records flow to RecordSink implementations
// on the consumer's logging cadence. The CSV sink sits on both paths
// so a session file interleaves records and event rows the way they
// happened.
package events
