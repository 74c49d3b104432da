package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltStore returns a new instance of bolt store in a temporary path.
func newTestBoltStore() (*boltBookStorage, error) {
	f, err := os.CreateTemp("", "tmp.bolt.db-")
	if err != nil {
		return nil, err
	}
	f.Close()
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   f.Name(),
			Timeout:    5 * time.Second,
			BucketName: "test.books",
		},
	}

	client, err := GetBoltDBClient(testConfig)
	if err != nil {
		return nil, err
	}
	return NewBoltBookStorage(zap.NewNop(), &testConfig.BoltDB, client), nil
}

// closeTestBoltStore closes the temporary bolt store and removes the underlying data file.
func (bs *boltBookStorage) closeTestBoltStore() error {
	defer os.Remove(bs.config.FilePath)
	return bs.Close()
}

func TestBoltStore(t *testing.T) {
	bs, err := newTestBoltStore()
	require.NoError(t, err, "failed in creating a test bolt store")
	defer bs.closeTestBoltStore()
	runBookStoreTests(t, bs)
}

// Ensure replayed books keep their id and move the sequence ahead.
func TestBoltStore_PutBook(t *testing.T) {
	bs, err := newTestBoltStore()
	require.NoError(t, err, "failed in creating a test bolt store")
	defer bs.closeTestBoltStore()

	err = bs.Put(context.TODO(), Book{ID: 7, Title: "Replayed", Author: "Mirror", Year: 1999})
	require.NoError(t, err)

	book, err := bs.GetOne(context.TODO(), 7)
	assert.NoError(t, err)
	assert.Equal(t, "Replayed", book.Title)

	created, err := bs.Create(context.TODO(), Book{Title: "Next", Author: "Mirror", Year: 2000})
	assert.NoError(t, err)
	assert.Equal(t, int64(8), created.ID)
}

// Ensure invalid ids are rejected by the replay path.
func TestBoltStore_PutInvalidBook(t *testing.T) {
	bs, err := newTestBoltStore()
	require.NoError(t, err, "failed in creating a test bolt store")
	defer bs.closeTestBoltStore()

	err = bs.Put(context.TODO(), Book{Title: "No id"})
	var serr *StorageError
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, "put", serr.Op)
}
