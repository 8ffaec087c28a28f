package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Remember returns the cached value under key, computing and storing it via
// produce on a miss. Values are JSON-encoded. Concurrent misses on the same
// key may each run produce; the last write wins, which is acceptable since
// producers are pure recomputations over the same data.
func Remember[T any](ctx context.Context, store Store, key string, ttl time.Duration, produce func(context.Context) (T, error)) (T, error) {
	var zero T
	if store != nil {
		raw, err := store.Get(ctx, key)
		if err == nil {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
		// A corrupt entry or an unreachable backend degrades to a miss.
	}

	value, err := produce(ctx)
	if err != nil {
		return zero, err
	}

	if store != nil {
		if raw, err := json.Marshal(value); err == nil {
			_ = store.Set(ctx, key, raw, ttl)
		}
	}

	return value, nil
}
