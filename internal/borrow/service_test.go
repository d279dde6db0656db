// AngelaMos | 2026
// service_test.go

package borrow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/shelfmark/internal/config"
	"github.com/angelamos/shelfmark/internal/core"
	"github.com/angelamos/shelfmark/internal/user"
)

type fakeUserRepo struct {
	user.Repository

	verified map[string]*user.User
}

func (f *fakeUserRepo) GetVerifiedByEmail(
	_ context.Context,
	email string,
) (*user.User, error) {
	if u, ok := f.verified[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("get verified user: %w", core.ErrNotFound)
}

type fakeBorrowRepo struct {
	Repository

	lastBorrow RecordBorrowParams
	borrowErr  error

	returnLedger *Borrow
	returnErr    error
}

func (f *fakeBorrowRepo) RecordBorrow(
	_ context.Context,
	params RecordBorrowParams,
) (*Borrow, error) {
	if f.borrowErr != nil {
		return nil, f.borrowErr
	}

	f.lastBorrow = params
	return &Borrow{
		ID:           "ledger-1",
		UserID:       params.UserID,
		UserName:     params.UserName,
		UserEmail:    params.UserEmail,
		BookID:       params.BookID,
		BorrowedDate: params.Now,
		DueDate:      params.DueDate,
	}, nil
}

func (f *fakeBorrowRepo) RecordReturn(
	_ context.Context,
	bookID, userID string,
	now time.Time,
	calcFine FineCalculator,
) (*Borrow, error) {
	if f.returnErr != nil {
		return nil, f.returnErr
	}

	ledger := *f.returnLedger
	ledger.BookID = bookID
	ledger.UserID = userID
	ledger.ReturnDate = &now
	ledger.Fine = calcFine(ledger.DueDate)
	return &ledger, nil
}

func testLibraryConfig() config.LibraryConfig {
	return config.LibraryConfig{
		LoanPeriod: 7 * 24 * time.Hour,
		FinePerDay: 10.0,
	}
}

func verifiedMember() *user.User {
	return &user.User{
		ID:              "user-1",
		Name:            "Reader",
		Email:           "reader@example.com",
		AccountVerified: true,
	}
}

func TestBorrowBookSetsDueDateFromLoanPeriod(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	users := &fakeUserRepo{verified: map[string]*user.User{
		"reader@example.com": verifiedMember(),
	}}
	repo := &fakeBorrowRepo{}

	svc := NewService(repo, users, testLibraryConfig())
	svc.now = func() time.Time { return now }

	ledger, err := svc.BorrowBook(
		context.Background(), "book-1", "reader@example.com",
	)
	require.NoError(t, err)

	assert.Equal(t, "user-1", ledger.UserID)
	assert.Equal(t, now, repo.lastBorrow.Now)
	assert.Equal(t, now.Add(7*24*time.Hour), repo.lastBorrow.DueDate)
	assert.Equal(t, "Reader", repo.lastBorrow.UserName)
	assert.Equal(t, "reader@example.com", repo.lastBorrow.UserEmail)
}

func TestBorrowBookUnknownUser(t *testing.T) {
	users := &fakeUserRepo{verified: map[string]*user.User{}}
	repo := &fakeBorrowRepo{}

	svc := NewService(repo, users, testLibraryConfig())

	_, err := svc.BorrowBook(
		context.Background(), "book-1", "ghost@example.com",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBorrowBookOutOfStock(t *testing.T) {
	users := &fakeUserRepo{verified: map[string]*user.User{
		"reader@example.com": verifiedMember(),
	}}
	repo := &fakeBorrowRepo{
		borrowErr: fmt.Errorf("borrow: out of stock: %w", core.ErrConflict),
	}

	svc := NewService(repo, users, testLibraryConfig())

	_, err := svc.BorrowBook(
		context.Background(), "book-1", "reader@example.com",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestReturnBookOnTimeHasNoFine(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	users := &fakeUserRepo{verified: map[string]*user.User{
		"reader@example.com": verifiedMember(),
	}}
	repo := &fakeBorrowRepo{
		returnLedger: &Borrow{
			ID:      "ledger-1",
			DueDate: now.Add(48 * time.Hour),
		},
	}

	svc := NewService(repo, users, testLibraryConfig())
	svc.now = func() time.Time { return now }

	ledger, err := svc.ReturnBook(
		context.Background(), "book-1", "reader@example.com",
	)
	require.NoError(t, err)

	assert.Equal(t, 0.0, ledger.Fine)
	require.NotNil(t, ledger.ReturnDate)
	assert.Equal(t, now, *ledger.ReturnDate)
}

func TestReturnBookLateChargesWholeDays(t *testing.T) {
	due := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	now := due.Add(3*24*time.Hour + 6*time.Hour)

	users := &fakeUserRepo{verified: map[string]*user.User{
		"reader@example.com": verifiedMember(),
	}}
	repo := &fakeBorrowRepo{
		returnLedger: &Borrow{ID: "ledger-1", DueDate: due},
	}

	svc := NewService(repo, users, testLibraryConfig())
	svc.now = func() time.Time { return now }

	ledger, err := svc.ReturnBook(
		context.Background(), "book-1", "reader@example.com",
	)
	require.NoError(t, err)

	// 3 whole days late; the extra 6 hours do not count.
	assert.Equal(t, 30.0, ledger.Fine)
}

func TestReturnBookNoActiveLoan(t *testing.T) {
	users := &fakeUserRepo{verified: map[string]*user.User{
		"reader@example.com": verifiedMember(),
	}}
	repo := &fakeBorrowRepo{
		returnErr: fmt.Errorf("return: no active loan: %w", core.ErrNotFound),
	}

	svc := NewService(repo, users, testLibraryConfig())

	_, err := svc.ReturnBook(
		context.Background(), "book-1", "reader@example.com",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
