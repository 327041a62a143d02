// Package journal persists session engine events to PostgreSQL.
//
// The journal:
//   - Implements the engine's Recorder contract with a non-blocking buffer
//   - Batches inserts by size and flush interval
//   - Is entirely optional; a disabled journal costs one nil check
package journal
