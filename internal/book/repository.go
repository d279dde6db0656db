// AngelaMos | 2026
// repository.go

package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/angelamos/shelfmark/internal/core"
)

type Repository interface {
	Create(ctx context.Context, book *Book) error
	GetByID(ctx context.Context, id string) (*Book, error)
	List(ctx context.Context) ([]Book, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, book *Book) error {
	query := `
		INSERT INTO books (
			id, title, author, description, price, quantity, availability,
			category
		) VALUES (
			$1, $2, $3, $4, $5, $6, $6 > 0, $7
		)
		RETURNING availability, created_at, updated_at`

	err := r.db.GetContext(ctx, book, query,
		book.ID,
		book.Title,
		book.Author,
		book.Description,
		book.Price,
		book.Quantity,
		book.Category,
	)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Book, error) {
	query := `
		SELECT id, title, author, description, price, quantity, availability,
		       category, created_at, updated_at
		FROM books
		WHERE id = $1`

	var book Book
	err := r.db.GetContext(ctx, &book, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get book: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	return &book, nil
}

func (r *repository) List(ctx context.Context) ([]Book, error) {
	query := `
		SELECT id, title, author, description, price, quantity, availability,
		       category, created_at, updated_at
		FROM books
		ORDER BY created_at DESC`

	var books []Book
	if err := r.db.SelectContext(ctx, &books, query); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return books, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM books WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete book: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM books`); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}
