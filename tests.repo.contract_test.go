package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBookStoreTests checks the behavior every storage backend must share.
// The store must be empty when passed in.
func runBookStoreTests(t *testing.T, store BookStore) {
	ctx := context.Background()

	t.Run("Get All On Empty Store", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})

	t.Run("Create Book", func(t *testing.T) {
		// ensures the first id is 1 and fields are kept.
		book, err := store.Create(ctx, Book{Title: "Dune", Author: "Frank Herbert", Year: 1965})
		require.NoError(t, err)
		assert.Equal(t, Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Year: 1965}, book)
	})

	t.Run("Get Existent Book", func(t *testing.T) {
		book, err := store.GetOne(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Year: 1965}, book)
	})

	t.Run("Get NonExistent Book", func(t *testing.T) {
		book, err := store.GetOne(ctx, 999)
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, Book{}, book)
	})

	t.Run("Get All Books In Insertion Order", func(t *testing.T) {
		_, err := store.Create(ctx, Book{Title: "Emma", Author: "Jane Austen", Year: 1815})
		require.NoError(t, err)
		first, err := store.GetAll(ctx)
		require.NoError(t, err)
		second, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, first, second)
		assert.Equal(t, "Dune", first[0].Title)
		assert.Equal(t, "Emma", first[1].Title)
	})

	t.Run("Concurrent Creations Get Distinct IDs", func(t *testing.T) {
		const total = 20
		var wg sync.WaitGroup
		ids := make(chan int64, total)
		for i := 0; i < total; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				book, err := store.Create(ctx, Book{Title: "Concurrent", Author: "Tester", Year: 2000})
				if assert.NoError(t, err) {
					ids <- book.ID
				}
			}()
		}
		wg.Wait()
		close(ids)
		seen := make(map[int64]bool, total)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, total)
	})

	t.Run("Reset Storage", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx))
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
		book, err := store.Create(ctx, Book{Title: "Dune", Author: "Frank Herbert", Year: 1965})
		require.NoError(t, err)
		assert.Equal(t, int64(1), book.ID)
	})
}
