package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	CreateFunc func(ctx context.Context, book Book) (Book, error)
	GetOneFunc func(ctx context.Context, id int64) (Book, error)
	GetAllFunc func(ctx context.Context) ([]Book, error)
	ResetFunc  func(ctx context.Context) error
}

// Create mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Create(ctx context.Context, book Book) (Book, error) {
	return m.CreateFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// Reset mocks the behavior of dropping all books by the repository.
func (m *MockBookStorage) Reset(ctx context.Context) error {
	return m.ResetFunc(ctx)
}

func (m *MockBookStorage) Close() error {
	return nil
}

// MockQueuer records pushed events and serves popped ones from PopFunc.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, event MirrorEvent) error
	PopFunc  func(ctx context.Context, qids ...string) (string, MirrorEvent, error)
}

func (m *MockQueuer) Push(ctx context.Context, qid string, event MirrorEvent) error {
	return m.PushFunc(ctx, qid, event)
}

func (m *MockQueuer) Pop(ctx context.Context, qids ...string) (string, MirrorEvent, error) {
	return m.PopFunc(ctx, qids...)
}

// MockReplica implements a fake BookReplica.
type MockReplica struct {
	PutFunc   func(ctx context.Context, book Book) error
	ResetFunc func(ctx context.Context) error
}

func (m *MockReplica) Put(ctx context.Context, book Book) error {
	return m.PutFunc(ctx, book)
}

func (m *MockReplica) Reset(ctx context.Context) error {
	return m.ResetFunc(ctx)
}

// MockCredentialStore implements a fake CredentialStore.
type MockCredentialStore struct {
	AuthenticateFunc func(ctx context.Context, username, password string) (string, error)
}

func (m *MockCredentialStore) Authenticate(ctx context.Context, username, password string) (string, error) {
	return m.AuthenticateFunc(ctx, username, password)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

const testSecret = "test-signing-secret"

// newTestConfig returns the minimal configuration used by api tests.
func newTestConfig() *Config {
	return &Config{
		Storage: StorageConfig{Driver: SQLiteDriver},
		Auth: AuthConfig{
			Secret:     testSecret,
			TokenTTL:   15 * time.Minute,
			Carrier:    CookieCarrier,
			CookieName: "my_access_token",
			Users:      []UserConfig{{Username: "test", Password: "test", UID: "12345"}},
		},
		Ops: OpsConfig{Enable: true, APIKey: "ops-key"},
	}
}

// newTestAPIHandler wires an APIHandler around the given storage with
// real validation, credentials and tokens driven by the mocked clock.
func newTestAPIHandler(t *testing.T, storage BookStore) *APIHandler {
	t.Helper()
	config := newTestConfig()
	clock := NewMockClocker()
	validator := NewValidator(clock)
	tokens, err := NewJWTTokenIssuer(config.Auth.Secret, config.Auth.TokenTTL, clock)
	require.NoError(t, err)
	carrier, err := NewTokenCarrier(&config.Auth)
	require.NoError(t, err)
	return NewAPIHandler(
		zap.NewNop(),
		config,
		&Statistics{started: clock.Now()},
		clock,
		NewMockUIDHandler("test"),
		NewBookService(zap.NewNop(), validator, storage, nil),
		NewAuthService(zap.NewNop(), NewStaticCredentialStore(config.Auth.Users), tokens),
		carrier,
		NewStorageMaintainer(zap.NewNop(), storage, nil),
	)
}
