// Package trade exposes typed trading operations over the session engine.
//
// Every call verifies the session first, heals it transparently when a
// probe fails, and talks to capability stubs with tolerant field maps, so
// the wrappers work unchanged across gateway builds with differing method
// and field spellings.
package trade
