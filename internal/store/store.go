// Package store provides the byte-level key/value adapter that all
// persisted state flows through. Values are opaque strings; callers do
// their own JSON encoding so corrupt blobs surface at decode time, not
// inside the storage layer.
package store

// Store reads and writes opaque string blobs. A missing key is reported
// via the boolean, never as an error.
type Store interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
