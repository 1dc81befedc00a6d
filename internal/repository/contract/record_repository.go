package contract

import (
	"context"
	"errors"
)

// Record is an opaque JSON-like document. Stores only require that it survives a
// JSON round trip.
type Record map[string]interface{}

var ErrRecordNotFound = errors.New("record not found")

type IRecordRepository interface {
	Save(ctx context.Context, key string, record Record) error
	// Get reports found=false with a nil error for a missing key.
	Get(ctx context.Context, key string) (Record, bool, error)
	Delete(ctx context.Context, key string) error
	// StreamUpdates delivers the current record (when present) and then every
	// later save. A delete delivers a nil Record. It blocks until ctx is done.
	StreamUpdates(ctx context.Context, key string, callback func(Record)) error
}
