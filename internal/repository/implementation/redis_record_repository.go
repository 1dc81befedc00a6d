package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-study-assistant-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "study:record:"
	redisChannelPrefix = "study:updates:"
)

// RedisRecordRepository shares records and their updates across instances.
type RedisRecordRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.IRecordRepository = (*RedisRecordRepository)(nil)

func NewRedisRecordRepository(rdb *redis.Client, ttl time.Duration) *RedisRecordRepository {
	return &RedisRecordRepository{rdb: rdb, ttl: ttl}
}

func RedisKey(key string) string     { return redisKeyPrefix + key }
func RedisChannel(key string) string { return redisChannelPrefix + key }

func (r *RedisRecordRepository) Save(ctx context.Context, key string, record contract.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, RedisKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return r.rdb.Publish(ctx, RedisChannel(key), data).Err()
}

func (r *RedisRecordRepository) Get(ctx context.Context, key string) (contract.Record, bool, error) {
	data, err := r.rdb.Get(ctx, RedisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var record contract.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (r *RedisRecordRepository) Delete(ctx context.Context, key string) error {
	n, err := r.rdb.Del(ctx, RedisKey(key)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	if n == 0 {
		return contract.ErrRecordNotFound
	}
	return r.rdb.Publish(ctx, RedisChannel(key), "null").Err()
}

func (r *RedisRecordRepository) StreamUpdates(ctx context.Context, key string, callback func(contract.Record)) error {
	pubsub := r.rdb.Subscribe(ctx, RedisChannel(key))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before taking the snapshot.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe %s: %w", key, err)
	}

	if rec, found, err := r.Get(ctx, key); err != nil {
		return err
	} else if found {
		callback(rec)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var record contract.Record
			if err := json.Unmarshal([]byte(msg.Payload), &record); err != nil {
				continue
			}
			callback(record)
		}
	}
}
