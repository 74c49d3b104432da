package main

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startRedisDockerContainer(t *testing.T) (string, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Failed to start Dockertest: %+v", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		t.Skipf("Could not connect to Docker: %+v", err)
	}

	resource, err := pool.Run("redis", "7.0.10-alpine", nil)
	if err != nil {
		t.Fatalf("Failed to start redis: %+v", err)
	}

	// build address the container is listening on
	addr := net.JoinHostPort("localhost", resource.GetPort("6379/tcp"))

	// ensure to wait for the container to be ready
	err = pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		return client.Ping(context.Background()).Err()
	})

	if err != nil {
		t.Fatalf("Failed to ping Redis: %+v", err)
	}

	destroyFunc := func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Failed to purge resource: %+v", err)
		}
	}

	return addr, destroyFunc
}

func TestRedisStore(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	runBookStoreTests(t, NewRedisBookStorage(zap.NewNop(), client))
}

func TestRedisQueue(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	q := NewRedisQueue(client)
	ctx := context.Background()

	book := Book{ID: 3, Title: "Queued", Author: "Redis", Year: 2009}
	require.NoError(t, q.Push(ctx, MirrorQueue, MirrorEvent{Kind: EventStorageReset}))
	require.NoError(t, q.Push(ctx, MirrorQueue, MirrorEvent{Kind: EventBookCreated, Book: book}))

	qid, event, err := q.Pop(ctx, MirrorQueue)
	require.NoError(t, err)
	assert.Equal(t, MirrorQueue, qid)
	assert.Equal(t, EventStorageReset, event.Kind)

	qid, event, err = q.Pop(ctx, MirrorQueue)
	require.NoError(t, err)
	assert.Equal(t, MirrorQueue, qid)
	assert.Equal(t, MirrorEvent{Kind: EventBookCreated, Book: book}, event)
}

// TestRedisStore_CreateDuringReset runs creations concurrently with resets.
// Every stored record must carry the id it is keyed by and no live id may
// be above the sequence, so later creations never overwrite a record.
func TestRedisStore_CreateDuringReset(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	store := NewRedisBookStorage(zap.NewNop(), client)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := store.Create(ctx, Book{Title: "Dune", Author: "Frank Herbert", Year: 1965})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			assert.NoError(t, store.Reset(ctx))
		}
	}()
	wg.Wait()

	books, err := store.GetAll(ctx)
	require.NoError(t, err)
	if len(books) == 0 {
		return
	}
	seq, err := client.Get(ctx, KeyBookSequence).Int64()
	require.NoError(t, err)
	for _, book := range books {
		assert.LessOrEqual(t, book.ID, seq)
	}

	created, err := store.Create(ctx, Book{Title: "Emma", Author: "Jane Austen", Year: 1815})
	require.NoError(t, err)
	after, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(books)+1)
	assert.Equal(t, created, after[len(after)-1])
}
