package names

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blockmon:"

// Store — справочник имён адресов. Адрес всегда нормализуется в lowercase.
type Store interface {
	// Get returns "" with a nil error when no name is set.
	Get(ctx context.Context, address string) (string, error)
	Set(ctx context.Context, address, name string) error
}

type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func key(address string) string {
	return keyPrefix + strings.ToLower(address) + ":name"
}

func (r *Redis) Get(ctx context.Context, address string) (string, error) {
	v, err := r.rdb.Get(ctx, key(address)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, address, name string) error {
	return r.rdb.Set(ctx, key(address), name, 0).Err()
}
