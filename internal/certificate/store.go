package certificate

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no record exists for a code.
var ErrNotFound = errors.New("certificate not found")

// Store persists certificate records keyed by code.
type Store interface {
	// Create writes the record, replacing any existing one with the same code.
	Create(ctx context.Context, rec Record) error
	// Get returns ErrNotFound when the code is unknown.
	Get(ctx context.Context, code string) (Record, error)
	// MarkVerified sets verified=true and verifiedDate=at without reading first.
	MarkVerified(ctx context.Context, code string, at time.Time) error
	Ping(ctx context.Context) error
}

// LookupStatus is the outcome of a lookup.
type LookupStatus int

const (
	StatusFound LookupStatus = iota
	StatusNotFound
	StatusStoreError
)

func (s LookupStatus) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	default:
		return "store_error"
	}
}

// LookupResult is Found(record), NotFound or StoreError(reason).
type LookupResult struct {
	Status LookupStatus
	Record Record
	Err    error
}

func Found(rec Record) LookupResult { return LookupResult{Status: StatusFound, Record: rec} }
func NotFound() LookupResult { return LookupResult{Status: StatusNotFound} }
func StoreError(err error) LookupResult { return LookupResult{Status: StatusStoreError, Err: err} }
func (r LookupResult) Found() bool { return r.Status == StatusFound }

// Lookup asks the store for code and folds the answer into a LookupResult.
func Lookup(ctx context.Context, store Store, code string) LookupResult {
	rec, err := store.Get(ctx, code)
	switch {
	case err == nil:
		return Found(rec)
	case errors.Is(err, ErrNotFound):
		return NotFound()
	default:
		return StoreError(err)
	}
}
