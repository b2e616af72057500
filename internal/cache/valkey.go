// Package cache holds the Valkey-backed caches: the active theme per user
// and the rendered content preview.
package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dndbuilder/internal/logger"
)

// ConnectValkey dials host:port and pings within ctx, bounded to five
// seconds.
func ConnectValkey(ctx context.Context, host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(host, port),
		Password:     password,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey %s: %w", client.Options().Addr, err)
	}

	logger.L().Info("valkey connected", zap.String("addr", client.Options().Addr))
	return client, nil
}
