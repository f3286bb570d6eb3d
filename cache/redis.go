package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lrckit-api/logcolors"

	redisClient "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	redisKeyPrefix = "lrckit:"
	redisTimeout   = 3 * time.Second
	redisScanCount = 200
)

// RedisCache stores entries in redis under a fixed key prefix so Clear
// never touches keys owned by other applications.
type RedisCache struct {
	client *redisClient.Client
	codec  codec
}

// NewRedisCache connects to addr and verifies the connection with PING
func NewRedisCache(addr, password string, db int, compressionEnabled bool) (*RedisCache, error) {
	client := redisClient.NewClient(&redisClient.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: redisTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	log.Infof("%s Connected to %s (db %d, compression: %v)", logcolors.LogCacheRedis, addr, db, compressionEnabled)
	return &RedisCache{client: client, codec: codec{compress: compressionEnabled}}, nil
}

func (rc *RedisCache) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisTimeout)
}

func (rc *RedisCache) Get(key string) (string, bool) {
	ctx, cancel := rc.ctx()
	defer cancel()

	stored, err := rc.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redisClient.Nil) {
			log.Errorf("%s Get %s: %v", logcolors.LogCacheRedis, key, err)
		}
		return "", false
	}

	value, err := rc.codec.decode(stored)
	if err != nil {
		log.Errorf("%s Error decoding value for key %s: %v", logcolors.LogCacheRedis, key, err)
		return "", false
	}
	return value, true
}

func (rc *RedisCache) Set(key, value string) error {
	encoded, err := rc.codec.encode(value)
	if err != nil {
		return err
	}

	ctx, cancel := rc.ctx()
	defer cancel()
	return rc.client.Set(ctx, redisKeyPrefix+key, encoded, 0).Err()
}

func (rc *RedisCache) Delete(key string) error {
	ctx, cancel := rc.ctx()
	defer cancel()
	return rc.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (rc *RedisCache) DeletePrefix(prefix string) (int, error) {
	keys, err := rc.scan(prefix)
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	ctx, cancel := rc.ctx()
	defer cancel()
	n, err := rc.client.Del(ctx, keys...).Result()
	return int(n), err
}

func (rc *RedisCache) Clear() error {
	_, err := rc.DeletePrefix("")
	return err
}

// Keys returns keys without the redis prefix
func (rc *RedisCache) Keys() ([]string, error) {
	full, err := rc.scan("")
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(full))
	for i, k := range full {
		keys[i] = k[len(redisKeyPrefix):]
	}
	return keys, nil
}

func (rc *RedisCache) Stats() (numKeys int, sizeInKB int) {
	keys, err := rc.scan("")
	if err != nil {
		log.Errorf("%s Stats scan: %v", logcolors.LogCacheRedis, err)
		return 0, 0
	}

	ctx, cancel := rc.ctx()
	defer cancel()

	pipe := rc.client.Pipeline()
	lens := make([]*redisClient.IntCmd, len(keys))
	for i, k := range keys {
		lens[i] = pipe.StrLen(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redisClient.Nil) {
		log.Errorf("%s Stats strlen: %v", logcolors.LogCacheRedis, err)
	}

	size := 0
	for i, k := range keys {
		size += len(k) + int(lens[i].Val())
	}
	return len(keys), size / 1024
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// scan returns full redis keys under our prefix plus prefix
func (rc *RedisCache) scan(prefix string) ([]string, error) {
	ctx, cancel := rc.ctx()
	defer cancel()

	var keys []string
	iter := rc.client.Scan(ctx, 0, redisKeyPrefix+escapeGlob(prefix)+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// escapeGlob escapes redis MATCH metacharacters
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
