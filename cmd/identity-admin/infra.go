package main

import (
	"context"
	"database/sql"
	"fmt"

	redisadapter "github.com/target/food-identity-gateway/internal/adapters/redis"
	"github.com/target/food-identity-gateway/internal/bootstrap"
)

func connectDB(ctx context.Context, cmdCtx *commandContext) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

func closeDB(cmdCtx *commandContext, db *sql.DB) {
	if err := db.Close(); err != nil {
		cmdCtx.Logger.Warn("db close failed", "error", err)
	}
}

// connectSessionStore returns the session store and a func that closes its client.
func connectSessionStore(ctx context.Context, cmdCtx *commandContext) (*redisadapter.SessionStore, func(), error) {
	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	store := redisadapter.NewSessionStoreWithPrefix(client, cmdCtx.Config.Redis.KeyPrefix)
	return store, func() {
		if err := client.Close(); err != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", err)
		}
	}, nil
}
