package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"cinecompose-server/modules/common/config"
)

// Connect - 트리거 큐용 Redis 연결 생성 (ping 실패 시 에러)
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	log.Printf("🔌 [Worker] Connecting to Redis: %s", cfg.GetRedisAddr())

	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.GetRedisAddr(),
		Username:    cfg.RedisUsername,
		Password:    cfg.RedisPassword,
		TLSConfig:   tlsConfig,
		DB:          0,
		DialTimeout: 10 * time.Second,
		// BRPOP 대기보다 길어야 함
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Println("✅ [Worker] Redis connected")
	return rdb, nil
}
