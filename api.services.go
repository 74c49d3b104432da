package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, input BookInput) (Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}

type BookService struct {
	logger    *zap.Logger
	validator InputValidator
	storage   BookStorage
	queue     Queuer
}

// NewBookService provides the book service. The queue is optional and
// only set when created books must be mirrored.
func NewBookService(logger *zap.Logger, validator InputValidator, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:    logger,
		validator: validator,
		storage:   storage,
		queue:     queue,
	}
}

// Add validates the input before any storage call then persists the book.
// The storage call is never retried since it would create a duplicate.
func (bs *BookService) Add(ctx context.Context, input BookInput) (Book, error) {
	if err := bs.validator.Struct(input); err != nil {
		return Book{}, err
	}
	book, err := bs.storage.Create(ctx, input.ToBook())
	if err != nil {
		return Book{}, err
	}
	if bs.queue != nil {
		if err := bs.queue.Push(ctx, MirrorQueue, MirrorEvent{Kind: EventBookCreated, Book: book}); err != nil {
			bs.logger.Error("service: failed to push book to queue", zap.String("qid", MirrorQueue), zap.Int64("book.id", book.ID), zap.Error(err))
		}
	}
	return book, nil
}

func (bs *BookService) GetOne(ctx context.Context, id int64) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx)
	if err == nil && books == nil {
		books = []Book{}
	}
	return books, err
}

type AuthServiceProvider interface {
	Login(ctx context.Context, input LoginInput) (AccessToken, error)
	Authorize(ctx context.Context, token string) (string, error)
}

type AuthService struct {
	logger      *zap.Logger
	credentials CredentialStore
	tokens      TokenIssuer
}

func NewAuthService(logger *zap.Logger, credentials CredentialStore, tokens TokenIssuer) AuthServiceProvider {
	return &AuthService{
		logger:      logger,
		credentials: credentials,
		tokens:      tokens,
	}
}

// Login mints an access token for the user matching the credentials.
func (as *AuthService) Login(ctx context.Context, input LoginInput) (AccessToken, error) {
	uid, err := as.credentials.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		return AccessToken{}, err
	}
	token, err := as.tokens.Issue(uid)
	if err != nil {
		return AccessToken{}, err
	}
	as.logger.Info("service: access token issued", zap.String("auth.uid", uid), zap.Time("auth.expires", token.ExpiresAt))
	return token, nil
}

// Authorize verifies the token and returns the user identifier it is bound to.
func (as *AuthService) Authorize(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoAuthToken
	}
	return as.tokens.Verify(token)
}

// StorageMaintainer is the privileged entry point to destructive storage
// operations. It is not part of the book service on purpose.
type StorageMaintainer struct {
	logger *zap.Logger
	store  Resetter
	queue  Queuer
}

func NewStorageMaintainer(logger *zap.Logger, store Resetter, queue Queuer) *StorageMaintainer {
	return &StorageMaintainer{logger: logger, store: store, queue: queue}
}

// Reset drops and recreates the books storage, then forwards the
// reset to the mirror when one is configured.
func (sm *StorageMaintainer) Reset(ctx context.Context) error {
	if err := sm.store.Reset(ctx); err != nil {
		return err
	}
	sm.logger.Warn("maintenance: books storage has been reset")
	if sm.queue != nil {
		if err := sm.queue.Push(ctx, MirrorQueue, MirrorEvent{Kind: EventStorageReset}); err != nil {
			sm.logger.Error("maintenance: failed to push reset to queue", zap.String("qid", MirrorQueue), zap.Error(err))
		}
	}
	return nil
}
