// Package store manages the optional PostgreSQL connection used for
// signal-event persistence.
package store
