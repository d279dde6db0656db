// AngelaMos | 2026
// repository.go

package borrow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/angelamos/shelfmark/internal/core"
)

const borrowColumns = `
	id, user_id, user_name, user_email, book_id, book_title, price,
	borrowed_date, due_date, return_date, fine, notified,
	created_at, updated_at`

// RecordBorrowParams carries the borrower snapshot into the transaction.
type RecordBorrowParams struct {
	BookID    string
	UserID    string
	UserName  string
	UserEmail string
	Now       time.Time
	DueDate   time.Time
}

// FineCalculator computes the fine for a loan returned now, given its due
// date. Injected so the policy lives in the service, not the SQL layer.
type FineCalculator func(due time.Time) float64

type Repository interface {
	RecordBorrow(
		ctx context.Context,
		params RecordBorrowParams,
	) (*Borrow, error)
	RecordReturn(
		ctx context.Context,
		bookID, userID string,
		now time.Time,
		calcFine FineCalculator,
	) (*Borrow, error)
	ListUserBorrows(ctx context.Context, userID string) ([]UserBorrow, error)
	ListAll(ctx context.Context) ([]Borrow, error)
	ListOverdueUnnotified(
		ctx context.Context,
		dueBefore time.Time,
	) ([]Borrow, error)
	MarkNotified(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
	CountOverdue(ctx context.Context, now time.Time) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository takes the root handle rather than core.DBTX because the
// borrow and return paths open their own transactions.
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// RecordBorrow runs the whole checkout as one transaction: stock is
// claimed with a conditional decrement, so two concurrent borrows of the
// last copy cannot both succeed.
func (r *repository) RecordBorrow(
	ctx context.Context,
	params RecordBorrowParams,
) (*Borrow, error) {
	var ledger Borrow

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var book struct {
			Title string  `db:"title"`
			Price float64 `db:"price"`
		}
		err := tx.GetContext(ctx, &book,
			`SELECT title, price FROM books WHERE id = $1`,
			params.BookID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("borrow: book: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("borrow: load book: %w", err)
		}

		var active bool
		err = tx.GetContext(ctx, &active, `
			SELECT EXISTS (
				SELECT 1 FROM user_borrows
				WHERE user_id = $1 AND book_id = $2 AND NOT returned
			)`,
			params.UserID, params.BookID,
		)
		if err != nil {
			return fmt.Errorf("borrow: check active loan: %w", err)
		}
		if active {
			return fmt.Errorf("borrow: already borrowed: %w", core.ErrConflict)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE books
			SET quantity = quantity - 1,
			    availability = quantity - 1 > 0,
			    updated_at = NOW()
			WHERE id = $1 AND quantity > 0`,
			params.BookID,
		)
		if err != nil {
			return fmt.Errorf("borrow: decrement stock: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("borrow: decrement stock: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("borrow: out of stock: %w", core.ErrConflict)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_borrows (
				id, user_id, book_id, book_title,
				borrowed_date, due_date, returned
			) VALUES ($1, $2, $3, $4, $5, $6, false)`,
			uuid.New().String(),
			params.UserID,
			params.BookID,
			book.Title,
			params.Now,
			params.DueDate,
		)
		if err != nil {
			return fmt.Errorf("borrow: insert user loan: %w", err)
		}

		ledger = Borrow{
			ID:           uuid.New().String(),
			UserID:       params.UserID,
			UserName:     params.UserName,
			UserEmail:    params.UserEmail,
			BookID:       params.BookID,
			BookTitle:    book.Title,
			Price:        book.Price,
			BorrowedDate: params.Now,
			DueDate:      params.DueDate,
		}

		err = tx.GetContext(ctx, &ledger, `
			INSERT INTO borrows (
				id, user_id, user_name, user_email, book_id, book_title,
				price, borrowed_date, due_date, notified
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
			RETURNING created_at, updated_at, fine, notified, return_date`,
			ledger.ID,
			ledger.UserID,
			ledger.UserName,
			ledger.UserEmail,
			ledger.BookID,
			ledger.BookTitle,
			ledger.Price,
			ledger.BorrowedDate,
			ledger.DueDate,
		)
		if err != nil {
			return fmt.Errorf("borrow: insert ledger: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ledger, nil
}

// RecordReturn closes the active loan in one transaction: flags the user
// loan returned, restores stock, and settles the ledger row with the fine.
func (r *repository) RecordReturn(
	ctx context.Context,
	bookID, userID string,
	now time.Time,
	calcFine FineCalculator,
) (*Borrow, error) {
	var ledger Borrow

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE user_borrows
			SET returned = true
			WHERE user_id = $1 AND book_id = $2 AND NOT returned`,
			userID, bookID,
		)
		if err != nil {
			return fmt.Errorf("return: flag user loan: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("return: flag user loan: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("return: no active loan: %w", core.ErrNotFound)
		}

		result, err = tx.ExecContext(ctx, `
			UPDATE books
			SET quantity = quantity + 1,
			    availability = true,
			    updated_at = NOW()
			WHERE id = $1`,
			bookID,
		)
		if err != nil {
			return fmt.Errorf("return: restore stock: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("return: restore stock: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("return: book: %w", core.ErrNotFound)
		}

		err = tx.GetContext(ctx, &ledger,
			`SELECT `+borrowColumns+`
			FROM borrows
			WHERE book_id = $1 AND user_id = $2 AND return_date IS NULL
			ORDER BY borrowed_date DESC
			LIMIT 1`,
			bookID, userID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("return: ledger row: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("return: load ledger: %w", err)
		}

		fine := calcFine(ledger.DueDate)

		_, err = tx.ExecContext(ctx, `
			UPDATE borrows
			SET return_date = $2, fine = $3, updated_at = NOW()
			WHERE id = $1`,
			ledger.ID, now, fine,
		)
		if err != nil {
			return fmt.Errorf("return: settle ledger: %w", err)
		}

		ledger.ReturnDate = &now
		ledger.Fine = fine

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ledger, nil
}

func (r *repository) ListUserBorrows(
	ctx context.Context,
	userID string,
) ([]UserBorrow, error) {
	query := `
		SELECT id, user_id, book_id, book_title,
		       borrowed_date, due_date, returned
		FROM user_borrows
		WHERE user_id = $1
		ORDER BY borrowed_date DESC`

	var borrows []UserBorrow
	if err := r.db.SelectContext(ctx, &borrows, query, userID); err != nil {
		return nil, fmt.Errorf("list user borrows: %w", err)
	}

	return borrows, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Borrow, error) {
	query := `
		SELECT ` + borrowColumns + `
		FROM borrows
		ORDER BY borrowed_date DESC`

	var borrows []Borrow
	if err := r.db.SelectContext(ctx, &borrows, query); err != nil {
		return nil, fmt.Errorf("list borrows: %w", err)
	}

	return borrows, nil
}

func (r *repository) ListOverdueUnnotified(
	ctx context.Context,
	dueBefore time.Time,
) ([]Borrow, error) {
	query := `
		SELECT ` + borrowColumns + `
		FROM borrows
		WHERE due_date < $1 AND return_date IS NULL AND NOT notified
		ORDER BY due_date`

	var borrows []Borrow
	if err := r.db.SelectContext(ctx, &borrows, query, dueBefore); err != nil {
		return nil, fmt.Errorf("list overdue borrows: %w", err)
	}

	return borrows, nil
}

// MarkNotified re-checks that the loan is still open and un-notified, so a
// return or a concurrent sweep between read and write wins instead of us.
func (r *repository) MarkNotified(ctx context.Context, id string) error {
	query := `
		UPDATE borrows
		SET notified = true, updated_at = NOW()
		WHERE id = $1 AND return_date IS NULL AND NOT notified`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("mark notified: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM borrows WHERE return_date IS NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("count active borrows: %w", err)
	}

	return count, nil
}

func (r *repository) CountOverdue(
	ctx context.Context,
	now time.Time,
) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM borrows
		WHERE return_date IS NULL AND due_date < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("count overdue borrows: %w", err)
	}

	return count, nil
}
