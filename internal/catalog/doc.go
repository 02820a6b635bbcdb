// Package catalog holds the in-memory view of published strips and the
// identifier allocator shared by all backends.
//
// A Catalog is a cache, never the source of truth: conflicts are decided by
// the backing store.
package catalog
