package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/beacon/internal/logger"
)

// ConnectOptions defines how the optional mirror connection is established.
type ConnectOptions struct {
	Addr        string        // ex: "localhost:6379"
	Password    string        // optional
	DB          int           // redis DB number
	DialTimeout time.Duration // per-dial timeout
	PingTimeout time.Duration // timeout for the startup ping
}

// New creates a redis client and verifies it once. Unlike a primary store,
// the mirror is allowed to start degraded: a failed startup ping is logged
// and the client is returned anyway, since go-redis redials per command and
// every mirror write is already best effort.
func New(opts ConnectOptions, log logger.Logger) *redis.Client {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.PingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis mirror unreachable at startup, continuing without it",
			logger.String("addr", opts.Addr),
			logger.Error(err))
	} else {
		log.Info("redis mirror connected",
			logger.String("addr", opts.Addr))
	}

	return client
}
