package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ BookStore = (*sqlBookStorage)(nil)

// bookModel is the relational representation of a book.
type bookModel struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	Title  string `gorm:"size:100;not null"`
	Author string `gorm:"size:30;not null"`
	Year   int    `gorm:"not null"`
}

func (bookModel) TableName() string {
	return "books"
}

func (m *bookModel) toBook() Book {
	return Book{ID: m.ID, Title: m.Title, Author: m.Author, Year: m.Year}
}

type sqlBookStorage struct {
	logger    *zap.Logger
	db        *gorm.DB
	writeLock *sync.Mutex // sqlite does not support concurrent writes
}

// GetSQLClient opens the sqlite or postgres database named by the storage
// driver and makes sure the books table exists.
func GetSQLClient(config *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch config.Storage.Driver {
	case SQLiteDriver:
		dialector = sqlite.Open(config.SQL.DSN)
	case PostgresDriver:
		dialector = postgres.Open(config.SQL.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", config.Storage.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access the connection pool: %w", err)
	}
	if config.SQL.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.SQL.MaxOpenConns)
	}
	if config.SQL.ConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.SQL.ConnLifetime)
	}

	if err = db.AutoMigrate(&bookModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create books table: %w", err)
	}
	return db, nil
}

// NewSQLBookStorage provides an instance of gorm-based book storage.
func NewSQLBookStorage(logger *zap.Logger, db *gorm.DB) BookStore {
	return &sqlBookStorage{
		logger:    logger,
		db:        db,
		writeLock: new(sync.Mutex),
	}
}

// Create inserts a new book record. The database assigns the id.
func (ss *sqlBookStorage) Create(ctx context.Context, book Book) (Book, error) {
	ss.writeLock.Lock()
	defer ss.writeLock.Unlock()

	m := bookModel{Title: book.Title, Author: book.Author, Year: book.Year}
	if err := ss.db.WithContext(ctx).Create(&m).Error; err != nil {
		return Book{}, storageErr("create", err)
	}
	return m.toBook(), nil
}

// GetOne retrieves a book record based on its ID.
func (ss *sqlBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	var m bookModel
	err := ss.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, storageErr("get", err)
	}
	return m.toBook(), nil
}

// GetAll retrieves all books in insertion order.
func (ss *sqlBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	var models []bookModel
	if err := ss.db.WithContext(ctx).Order("id asc").Find(&models).Error; err != nil {
		return nil, storageErr("list", err)
	}
	books := make([]Book, 0, len(models))
	for i := range models {
		books = append(books, models[i].toBook())
	}
	return books, nil
}

// Reset drops the books table and creates it again.
func (ss *sqlBookStorage) Reset(ctx context.Context) error {
	ss.writeLock.Lock()
	defer ss.writeLock.Unlock()

	db := ss.db.WithContext(ctx)
	if err := db.Migrator().DropTable(&bookModel{}); err != nil {
		return storageErr("reset", err)
	}
	return storageErr("reset", db.AutoMigrate(&bookModel{}))
}

// Close releases the underlying connection pool.
func (ss *sqlBookStorage) Close() error {
	sqlDB, err := ss.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
