package memo

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/store/redis"
)

// Redis shares cached results between instances.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps client. Keys are stored as prefix+key and expire after
// ttl; a zero ttl keeps them until evicted.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.UniversalClient().Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.CodeStore, "memo get")
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.UniversalClient().Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CodeStore, "memo set")
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
