// Package cache provides the durable local cache used to hydrate resources
// before the server has answered a subscription.
//
// A Cache wraps one Store backend. Backends are plain byte stores keyed by
// resource locator:
//
//   - MemoryStore: process-local, lost on exit
//   - SQLStore: any database/sql driver (PostgreSQL, MySQL, SQLite)
//   - S3Store: an S3 bucket, one object per locator
//   - KVStore: adapter over a string key-value collaborator
//
// The Cache facade never fails the caller. Backend errors, timeouts, closed
// stores and corrupt entries are logged and treated as "absent" on read and
// as a no-op on write. Entries never expire and are never evicted; a later
// push overwrites them.
package cache
