// Package inmemorystore provides a thread-safe, in-memory implementation
// of the nodestore.Store interface. Each node gets its own lock so that
// concurrent backends completing different nodes never contend.
package inmemorystore
