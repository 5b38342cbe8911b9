// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface. It keeps insertion order for nodes
// and wires so that scheduling stays deterministic.
package inmemorytopology
