package main

import "context"

// Book represents a book entity.
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

// BookInput is the client payload used to create a book. The id
// is never accepted from clients, it is assigned by the storage.
type BookInput struct {
	Title  string `json:"title" validate:"min=1,max=100"`
	Author string `json:"author" validate:"min=1,max=30"`
	Year   int    `json:"year" validate:"gte=500,notfuture"`
}

// ToBook converts a validated input into a book without id.
func (in BookInput) ToBook() Book {
	return Book{Title: in.Title, Author: in.Author, Year: in.Year}
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Create(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}

// Resetter drops and recreates the underlying books structure.
// All data is irreversibly lost.
type Resetter interface {
	Reset(ctx context.Context) error
}

// BookStore is a closable storage backend which supports reset.
type BookStore interface {
	BookStorage
	Resetter
	Close() error
}

// BookReplica receives books whose ids were already assigned by
// the primary storage.
type BookReplica interface {
	Resetter
	Put(ctx context.Context, book Book) error
}
