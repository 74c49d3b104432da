package main

import (
	"context"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// boltDBConsumer replays the primary storage events into the bolt replica.
type boltDBConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	replica BookReplica
}

func NewBoltDBConsumer(logger *zap.Logger, q Queuer, replica BookReplica) Consumer {
	return &boltDBConsumer{logger, q, replica}
}

// Consume runs until ctx is done. Replay failures are logged and skipped.
func (bc *boltDBConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, event, err := bc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			bc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			bc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			continue
		}

		switch event.Kind {
		case EventBookCreated:
			if err = bc.replica.Put(ctx, event.Book); err != nil {
				bc.logger.Error("consumer: failed to create", zap.Int64("book.id", event.Book.ID), zap.Error(err))
			}
		case EventStorageReset:
			if err = bc.replica.Reset(ctx); err != nil {
				bc.logger.Error("consumer: failed to reset", zap.Error(err))
			}
		default:
			bc.logger.Warn("consumer: received unknown event", zap.String("qid", qid), zap.String("event.kind", event.Kind))
		}
	}
}
