package main

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewBookStore provides the book storage selected by the configured driver.
// The redis client is required only by the redis driver.
func NewBookStore(logger *zap.Logger, config *Config, redisClient *redis.Client) (BookStore, error) {
	logger = logger.With(zap.String("storage.driver", config.Storage.Driver))
	switch config.Storage.Driver {
	case RedisDriver:
		if redisClient == nil {
			return nil, errors.New("redis storage requires a redis client")
		}
		return NewRedisBookStorage(logger, redisClient), nil
	case BoltDriver:
		client, err := GetBoltDBClient(config)
		if err != nil {
			return nil, err
		}
		return NewBoltBookStorage(logger, &config.BoltDB, client), nil
	case SQLiteDriver, PostgresDriver:
		db, err := GetSQLClient(config)
		if err != nil {
			return nil, err
		}
		return NewSQLBookStorage(logger, db), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
}
