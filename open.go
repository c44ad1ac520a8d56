/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/suparena/entitymapper/config"
	"github.com/suparena/entitymapper/datastore"
	"github.com/suparena/entitymapper/datastore/cache"
	"github.com/suparena/entitymapper/datastore/ddb"
	"github.com/suparena/entitymapper/datastore/sqlite"
)

// retryBackoff is the base delay between throttled DynamoDB queries.
const retryBackoff = 100 * time.Millisecond

// OpenStore builds the store selected by cfg, wrapped in a Redis document
// cache when one is configured. Close the store with datastore.Closer when done.
func OpenStore(ctx context.Context, cfg config.Config) (datastore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store datastore.Store
	switch cfg.Backend {
	case config.BackendMemory:
		s, err := sqlite.Open(":memory:")
		if err != nil {
			return nil, err
		}
		store = s
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store = s
	case config.BackendDynamoDB:
		client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
			Region:    cfg.DynamoDB.Region,
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
			Endpoint:  cfg.DynamoDB.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		store = ddb.NewStore(client, cfg.DynamoDB.Table,
			ddb.WithPageSize(cfg.DynamoDB.PageSize),
			ddb.WithRetries(cfg.DynamoDB.MaxRetries, retryBackoff),
		)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	log.Debug("store opened", "backend", cfg.Backend)

	if cfg.Redis.Enabled() {
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			if c, ok := store.(datastore.Closer); ok {
				c.Close()
			}
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		store = cache.New(store, rc, cache.WithTTL(cfg.Redis.TTL))
		log.Debug("document cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}
	return store, nil
}
