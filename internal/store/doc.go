// Package store provides SQLite-backed metadata storage for shareserver.
//
// The store holds one row per asset: the storage path of its blob, the
// declared suffix, the uploader, upload time, size and checksum. The bytes
// themselves live in a blob store; see package asset for the protocol that
// keeps the two consistent.
//
// Store doubles as the DAO factory: Pictures returns the data-access object
// for picture rows. DAOs expose rows-affected counts so callers can tell a
// silently ignored write from a real one.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Schema changes are applied by PRAGMA user_version migrations on Open.
package store
