// Package registry resolves participant identifiers to participant records.
// The matchmaker consumes it only through the Registry interface; concrete
// stores cover a fixed in-memory list, an empty default, Redis hashes and a
// PostgreSQL table.
package registry
