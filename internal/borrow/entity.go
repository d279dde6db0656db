// AngelaMos | 2026
// entity.go

package borrow

import (
	"time"
)

// Borrow is the ledger row for a single loan. Borrower and book details
// are snapshotted at borrow time so the record survives later edits.
type Borrow struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	UserName     string     `db:"user_name"`
	UserEmail    string     `db:"user_email"`
	BookID       string     `db:"book_id"`
	BookTitle    string     `db:"book_title"`
	Price        float64    `db:"price"`
	BorrowedDate time.Time  `db:"borrowed_date"`
	DueDate      time.Time  `db:"due_date"`
	ReturnDate   *time.Time `db:"return_date"`
	Fine         float64    `db:"fine"`
	Notified     bool       `db:"notified"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (b *Borrow) Returned() bool {
	return b.ReturnDate != nil
}

func (b *Borrow) Overdue(now time.Time) bool {
	return b.ReturnDate == nil && now.After(b.DueDate)
}

// UserBorrow is the per-user loan view. Rows are never deleted, only
// flagged returned, so a member's history stays intact.
type UserBorrow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	BookID       string    `db:"book_id"`
	BookTitle    string    `db:"book_title"`
	BorrowedDate time.Time `db:"borrowed_date"`
	DueDate      time.Time `db:"due_date"`
	Returned     bool      `db:"returned"`
}
