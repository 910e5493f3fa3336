package storage

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is reported by backends when a key has never been written.
	ErrKeyNotFound = errors.New("key not found")

	// ErrMalformedValue is reported by backends holding a value they cannot decode.
	ErrMalformedValue = errors.New("malformed stored value")
)

// TextStore is a synchronous key-value store that only accepts strings,
// like a browser's local storage.
type TextStore interface {
	// GetItem returns the stored string. A missing key yields ErrKeyNotFound.
	GetItem(ctx context.Context, key string) (string, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
}

// HostStore is a callback-based storage API offered by an embedding host.
// It accepts structured values, so callers must not encode them first.
// Callbacks may run on another goroutine.
type HostStore interface {
	GetStorage(opts GetOptions)
	SetStorage(opts SetOptions)
}

// GetOptions describes one host read. Exactly one callback is invoked.
type GetOptions struct {
	Key     string
	Success func(data any)
	Fail    func(err error)
}

// SetOptions describes one host write. Exactly one callback is invoked.
type SetOptions struct {
	Key     string
	Data    any
	Success func()
	Fail    func(err error)
}

// Backends lists the storage capabilities the environment offers. It is
// probed once at startup. Host is preferred when both are set.
type Backends struct {
	Host HostStore
	Text TextStore
}

// Name reports which backend an Adapter built from b will use.
func (b Backends) Name() string {
	switch {
	case b.Host != nil:
		return "host"
	case b.Text != nil:
		return "text"
	default:
		return "none"
	}
}
