package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis keys used by the book storage. The hash holds the records,
// the sorted set keeps insertion order and the counter allocates ids.
const (
	HBooks          string = "books"
	ZBookIDs        string = "books:ids"
	KeyBookSequence string = "books:sequence"
)

var _ BookStore = (*redisBookStorage)(nil)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStore {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// createBookScript allocates the next id and stores the record with its
// ordering entry. Scripts run atomically so a concurrent Reset can never
// land between the allocation and the write.
var createBookScript = redis.NewScript(`
local id = redis.call("INCR", KEYS[3])
local book = cjson.decode(ARGV[1])
book["id"] = id
local payload = cjson.encode(book)
redis.call("HSET", KEYS[1], id, payload)
redis.call("ZADD", KEYS[2], id, id)
return payload
`)

// Create stores the book under the next id of the sequence.
// An id consumed by a failed call is never handed out again.
func (rs *redisBookStorage) Create(ctx context.Context, book Book) (Book, error) {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return Book{}, storageErr("create", err)
	}
	payload, err := createBookScript.Run(ctx, rs.client, []string{HBooks, ZBookIDs, KeyBookSequence}, bookBytes).Text()
	if err != nil {
		return Book{}, storageErr("create", err)
	}
	var created Book
	if err = json.Unmarshal([]byte(payload), &created); err != nil {
		return Book{}, storageErr("create", err)
	}
	return created, nil
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, HBooks, strconv.FormatInt(id, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, storageErr("get", err)
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, storageErr("get", err)
}

// GetAll retrieves all books stored in the redis database ordered by id.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	ids, err := rs.client.ZRange(ctx, ZBookIDs, 0, -1).Result()
	if err != nil {
		return nil, storageErr("list", err)
	}
	books := []Book{}
	if len(ids) == 0 {
		return books, nil
	}
	values, err := rs.client.HMGet(ctx, HBooks, ids...).Result()
	if err != nil {
		return nil, storageErr("list", err)
	}
	for i, value := range values {
		bookJSONString, ok := value.(string)
		if !ok {
			rs.logger.Warn("storage: ordered id without record", zap.String("book.id", ids[i]))
			continue
		}
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, storageErr("list", err)
		}
		books = append(books, book)
	}
	return books, nil
}

// Reset deletes all books keys including the id counter.
func (rs *redisBookStorage) Reset(ctx context.Context) error {
	return storageErr("reset", rs.client.Del(ctx, HBooks, ZBookIDs, KeyBookSequence).Err())
}

// Close is a no-op. The redis client is shared and closed by the App.
func (rs *redisBookStorage) Close() error {
	return nil
}
