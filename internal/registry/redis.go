package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the connection to a Redis instance holding map
// definitions as JSON values.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	KeyPattern string
}

// LoadRedis fetches every key matching the configured pattern and decodes the
// value of each as one MapConfig. The map identifier is the last segment of
// the key, so "tileproxy:map:osm" defines the map "osm".
func LoadRedis(ctx context.Context, cfg RedisConfig) ([]*MapConfig, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	defer client.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var configs []*MapConfig
	iter := client.Scan(ctx, 0, cfg.KeyPattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := client.Get(ctx, key).Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to read map definition %q: %w", key, err)
		}

		var mapCfg MapConfig
		if err := json.Unmarshal(data, &mapCfg); err != nil {
			return nil, fmt.Errorf("failed to decode map definition %q: %w", key, err)
		}

		segments := strings.Split(key, ":")
		mapCfg.ID = segments[len(segments)-1]
		configs = append(configs, &mapCfg)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}

	return configs, nil
}
