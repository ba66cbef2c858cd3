// Package book maintains order book state for a binary market.
//
// A binary market carries two complementary books (YES and NO) for the
// same instrument. The ask side is never tracked separately: the best
// ask for one side is derived as 100 minus the best bid of the opposite
// side.
//
// Conventions:
//   - Prices: integer cents, 1-99
//   - Quantities: integer contracts; a level at quantity <= 0 is absent
//
// The Book holds pure state and performs no I/O. It is not safe for
// concurrent use; a single consumer goroutine owns all mutation.
package book
