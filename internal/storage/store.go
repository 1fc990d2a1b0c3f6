package storage

// Store is an opaque key-value store. Get reports ok=false for a missing
// key; a missing key is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}
