package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Goden-Gun/adt-lib/pkg/config"
	"github.com/Goden-Gun/adt-lib/pkg/session"
)

// InitSessionStore 按配置创建 CSRF 会话缓存
// backend 为 redis 时 client 不能为空
func InitSessionStore(cfg config.SessionConfig, client redis.Cmdable) (session.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("session backend redis requires a redis client")
		}
		return session.NewRedisStore(client, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// InitRedisSessionStore 连接 Redis 并创建会话缓存；backend 非 redis 时不连接
func InitRedisSessionStore(ctx context.Context, cfg config.SessionConfig, redisCfg config.RedisConfig) (session.Store, func() error, error) {
	if cfg.Backend != "redis" {
		store, err := InitSessionStore(cfg, nil)
		return store, func() error { return nil }, err
	}
	client, err := InitRedis(ctx, redisCfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := InitSessionStore(cfg, client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, client.Close, nil
}
