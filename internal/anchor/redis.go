package anchor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/pkg/redis"
)

// RedisStore keeps learned anchors in one hash per series:
// sgxsync:anchors:<series> → {date: id}
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an enabled Redis client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Load(ctx context.Context) ([]Anchor, error) {
	if !r.client.Enabled() {
		return nil, nil
	}

	var out []Anchor
	for _, series := range contracts.AllSeries {
		fields, err := r.client.Redis().HGetAll(ctx, r.client.Key("anchors", string(series))).Result()
		if err != nil {
			return nil, fmt.Errorf("load %s anchors: %w", series, err)
		}

		for k, v := range fields {
			date, err := contracts.ParseTradingDate(k)
			if err != nil {
				return nil, err
			}
			id, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("anchor %s/%s: %w", series, k, err)
			}
			out = append(out, Anchor{Series: series, Date: date, ID: id})
		}
	}
	return out, nil
}

func (r *RedisStore) Save(ctx context.Context, a Anchor) error {
	if !r.client.Enabled() {
		return nil
	}
	return r.client.Redis().HSet(ctx, r.client.Key("anchors", string(a.Series)), a.Date.String(), a.ID).Err()
}

// Close leaves the shared client open; its owner closes it
func (r *RedisStore) Close() error { return nil }
