package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

var (
	_ BookStore   = (*boltBookStorage)(nil)
	_ BookReplica = (*boltBookStorage)(nil)
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) *boltBookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// itob returns an 8-byte big endian representation of v. Keys
// encoded that way make the cursor iterate in id order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

// Create inserts a new book record into boltdb store. The id comes from the
// bucket sequence which is only updated inside the single writer transaction.
func (bs *boltBookStorage) Create(_ context.Context, book Book) (Book, error) {
	err := bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		book.ID = int64(seq)
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		return b.Put(itob(seq), bookBytes)
	})
	if err != nil {
		return Book{}, storageErr("create", err)
	}
	return book, nil
}

// Put stores a book under its already assigned id. It is used to replay books
// created by the primary storage and keeps the bucket sequence ahead of them.
func (bs *boltBookStorage) Put(_ context.Context, book Book) error {
	if book.ID <= 0 {
		return storageErr("put", fmt.Errorf("invalid book id %d", book.ID))
	}
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return storageErr("put", err)
	}
	err = bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		id := uint64(book.ID)
		if b.Sequence() < id {
			if err := b.SetSequence(id); err != nil {
				return err
			}
		}
		return b.Put(itob(id), bookBytes)
	})
	return storageErr("put", err)
}

// GetOne retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) GetOne(_ context.Context, id int64) (Book, error) {
	var book Book
	if id <= 0 {
		return book, ErrBookNotFound
	}
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return book, storageErr("get", err)
	}
	defer tx.Rollback()

	result := tx.Bucket([]byte(bs.config.BucketName)).Get(itob(uint64(id)))
	if result == nil {
		return book, ErrBookNotFound
	}
	err = json.Unmarshal(result, &book)
	return book, storageErr("get", err)
}

// GetAll retrieves a list of all books stored in the bolt database.
func (bs *boltBookStorage) GetAll(_ context.Context) ([]Book, error) {
	tx, err := bs.client.Begin(false)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer tx.Rollback()

	// Create a cursor on the books' bucket.
	c := tx.Bucket([]byte(bs.config.BucketName)).Cursor()

	books := []Book{}
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var book Book
		if err = json.Unmarshal(v, &book); err != nil {
			return nil, storageErr("list", err)
		}
		books = append(books, book)
	}
	return books, nil
}

// Reset drops the books bucket and recreates it empty. This
// also restarts the id sequence.
func (bs *boltBookStorage) Reset(_ context.Context) error {
	name := []byte(bs.config.BucketName)
	err := bs.client.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(name)
		return err
	})
	return storageErr("reset", err)
}
