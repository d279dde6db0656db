// AngelaMos | 2026
// service_test.go

package book

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/shelfmark/internal/core"
)

type fakeRepo struct {
	books map[string]*Book
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{books: make(map[string]*Book)}
}

func (f *fakeRepo) Create(_ context.Context, b *Book) error {
	b.Availability = b.Quantity > 0
	f.books[b.ID] = b
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Book, error) {
	if b, ok := f.books[id]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("get book: %w", core.ErrNotFound)
}

func (f *fakeRepo) List(_ context.Context) ([]Book, error) {
	out := make([]Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.books[id]; !ok {
		return fmt.Errorf("delete book: %w", core.ErrNotFound)
	}
	delete(f.books, id)
	return nil
}

func (f *fakeRepo) Count(_ context.Context) (int, error) {
	return len(f.books), nil
}

func TestAddBookDerivesAvailability(t *testing.T) {
	svc := NewService(newFakeRepo())

	inStock, err := svc.AddBook(context.Background(), AddBookRequest{
		Title:    "  The Go Programming Language  ",
		Author:   "Donovan",
		Price:    39.99,
		Quantity: 3,
		Category: CategoryScience,
	})
	require.NoError(t, err)

	assert.Equal(t, "The Go Programming Language", inStock.Title)
	assert.True(t, inStock.Availability)
	assert.NotEmpty(t, inStock.ID)

	outOfStock, err := svc.AddBook(context.Background(), AddBookRequest{
		Title:    "Rare Manuscript",
		Author:   "Unknown",
		Price:    500,
		Quantity: 0,
	})
	require.NoError(t, err)
	assert.False(t, outOfStock.Availability)
}

func TestAddBookDefaultsCategory(t *testing.T) {
	svc := NewService(newFakeRepo())

	created, err := svc.AddBook(context.Background(), AddBookRequest{
		Title:    "Untagged",
		Author:   "Anon",
		Price:    5,
		Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, CategoryOther, created.Category)
}

func TestDeleteBookNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())

	err := svc.DeleteBook(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
