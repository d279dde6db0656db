// AngelaMos | 2026
// service.go

package borrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelamos/shelfmark/internal/config"
	"github.com/angelamos/shelfmark/internal/core"
	"github.com/angelamos/shelfmark/internal/user"
)

type Service struct {
	repo    Repository
	users   user.Repository
	library config.LibraryConfig
	now     func() time.Time
}

func NewService(
	repo Repository,
	users user.Repository,
	library config.LibraryConfig,
) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		library: library,
		now:     time.Now,
	}
}

// BorrowBook checks out a book to the verified member identified by email.
// The stock check and both loan rows commit atomically in the repository.
func (s *Service) BorrowBook(
	ctx context.Context,
	bookID, email string,
) (*Borrow, error) {
	borrower, err := s.users.GetVerifiedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, fmt.Errorf("borrow book: %w", err)
	}

	now := s.now()
	ledger, err := s.repo.RecordBorrow(ctx, RecordBorrowParams{
		BookID:    bookID,
		UserID:    borrower.ID,
		UserName:  borrower.Name,
		UserEmail: borrower.Email,
		Now:       now,
		DueDate:   now.Add(s.library.LoanPeriod),
	})
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

// ReturnBook closes the member's active loan on the book and settles the
// fine for any whole days past due.
func (s *Service) ReturnBook(
	ctx context.Context,
	bookID, email string,
) (*Borrow, error) {
	borrower, err := s.users.GetVerifiedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, fmt.Errorf("return book: %w", err)
	}

	now := s.now()
	ledger, err := s.repo.RecordReturn(
		ctx,
		bookID,
		borrower.ID,
		now,
		func(due time.Time) float64 {
			return CalculateFine(due, now, s.library.FinePerDay)
		},
	)
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

func (s *Service) ListUserBorrows(
	ctx context.Context,
	userID string,
) ([]UserBorrow, error) {
	return s.repo.ListUserBorrows(ctx, userID)
}

func (s *Service) ListAllBorrows(ctx context.Context) ([]Borrow, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

func (s *Service) CountOverdue(ctx context.Context) (int, error) {
	return s.repo.CountOverdue(ctx, s.now())
}
