// Package inmemorystore provides a thread-safe, in-memory implementation
// of the statestore.Store interface. It is suitable for a single process
// where run state does not need to outlive the run.
package inmemorystore
