package memory

import (
	"context"
	"encoding/json"
	"time"

	"ai-study-assistant-be/internal/repository/contract"
	"ai-study-assistant-be/internal/repository/updates"

	"github.com/patrickmn/go-cache"
)

type RecordRepository struct {
	cache *cache.Cache
	bus   *updates.Bus
}

var _ contract.IRecordRepository = (*RecordRepository)(nil)

// NewRecordRepository keeps records for ttl and purges expired items every ttl/6.
func NewRecordRepository(ttl time.Duration, bus *updates.Bus) *RecordRepository {
	cleanup := ttl / 6
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &RecordRepository{
		cache: cache.New(ttl, cleanup),
		bus:   bus,
	}
}

func (r *RecordRepository) Save(_ context.Context, key string, record contract.Record) error {
	// Stored as JSON so callers never share a map with the cache.
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	r.cache.Set(key, data, cache.DefaultExpiration)
	return r.bus.Publish(key, record)
}

func (r *RecordRepository) Get(_ context.Context, key string) (contract.Record, bool, error) {
	x, found := r.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	var record contract.Record
	if err := json.Unmarshal(x.([]byte), &record); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (r *RecordRepository) Delete(_ context.Context, key string) error {
	if _, found := r.cache.Get(key); !found {
		return contract.ErrRecordNotFound
	}
	r.cache.Delete(key)
	return r.bus.Publish(key, nil)
}

func (r *RecordRepository) StreamUpdates(ctx context.Context, key string, callback func(contract.Record)) error {
	return r.bus.Watch(ctx, key, func() (contract.Record, bool, error) {
		return r.Get(ctx, key)
	}, callback)
}
