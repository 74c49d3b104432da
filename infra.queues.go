package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// MirrorQueue holds every storage event replayed on the mirror. Creations
// and resets share this single list so they are consumed in arrival order.
const MirrorQueue = "books:mirror:events"

// Kinds of mirror events.
const (
	EventBookCreated  = "book.created"
	EventStorageReset = "storage.reset"
)

// MirrorEvent is a primary storage change to be applied on the replica.
type MirrorEvent struct {
	Kind string `json:"kind"`
	Book Book   `json:"book"`
}

// Ensure *redisQueue implements Queuer.
var _ Queuer = (*redisQueue)(nil)

// Queuer describes a queue.
type Queuer interface {
	Push(ctx context.Context, qid string, event MirrorEvent) error
	Pop(ctx context.Context, qids ...string) (string, MirrorEvent, error)
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client}
}

// Push appends an event to the tail of the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, event MirrorEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, eventBytes).Err()
}

// Pop blocks until an event is available on one of the queue ids and returns it.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, MirrorEvent, error) {
	var event MirrorEvent
	var qid string
	infos, err := q.client.BLPop(ctx, 0*time.Second, qids...).Result()
	if err != nil {
		return qid, event, err
	}

	if err = json.Unmarshal([]byte(infos[1]), &event); err != nil {
		return qid, event, err
	}
	qid = infos[0]
	return qid, event, nil
}
