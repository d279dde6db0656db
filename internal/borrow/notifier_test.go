// AngelaMos | 2026
// notifier_test.go

package borrow

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/shelfmark/internal/core"
)

type fakeSweepRepo struct {
	Repository

	overdue     []Borrow
	listedSince time.Time
	notified    map[string]int
	markErr     map[string]error
}

func newFakeSweepRepo(overdue ...Borrow) *fakeSweepRepo {
	return &fakeSweepRepo{
		overdue:  overdue,
		notified: make(map[string]int),
		markErr:  make(map[string]error),
	}
}

func (f *fakeSweepRepo) ListOverdueUnnotified(
	_ context.Context,
	dueBefore time.Time,
) ([]Borrow, error) {
	f.listedSince = dueBefore

	var out []Borrow
	for _, b := range f.overdue {
		if b.DueDate.Before(dueBefore) && b.ReturnDate == nil && !b.Notified {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeSweepRepo) MarkNotified(_ context.Context, id string) error {
	if err, ok := f.markErr[id]; ok {
		return err
	}
	f.notified[id]++
	for i := range f.overdue {
		if f.overdue[i].ID == id {
			f.overdue[i].Notified = true
		}
	}
	return nil
}

type recordingMailer struct {
	sent    []string
	failFor map[string]error
}

func (m *recordingMailer) Send(
	_ context.Context,
	to, _, _ string,
) error {
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, to)
	return nil
}

func overdueLoan(id, email string, due time.Time) Borrow {
	return Borrow{
		ID:        id,
		UserName:  "Reader",
		UserEmail: email,
		BookTitle: "The Go Programming Language",
		DueDate:   due,
	}
}

func TestSweepNotifiesOverdueLoans(t *testing.T) {
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	repo := newFakeSweepRepo(
		overdueLoan("loan-1", "a@example.com", now.Add(-72*time.Hour)),
		overdueLoan("loan-2", "b@example.com", now.Add(-48*time.Hour)),
	)
	mailer := &recordingMailer{}

	n := NewNotifier(repo, mailer, 24*time.Hour, slog.Default())
	n.now = func() time.Time { return now }

	sent, err := n.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, mailer.sent)
	assert.Equal(t, now.Add(-24*time.Hour), repo.listedSince)
}

func TestSweepSendsAtMostOnce(t *testing.T) {
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	repo := newFakeSweepRepo(
		overdueLoan("loan-1", "a@example.com", now.Add(-72*time.Hour)),
	)
	mailer := &recordingMailer{}

	n := NewNotifier(repo, mailer, 24*time.Hour, slog.Default())
	n.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := n.Sweep(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, 1, repo.notified["loan-1"])
}

func TestSweepRetriesFailedSendNextPass(t *testing.T) {
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	repo := newFakeSweepRepo(
		overdueLoan("loan-1", "a@example.com", now.Add(-72*time.Hour)),
	)
	mailer := &recordingMailer{
		failFor: map[string]error{
			"a@example.com": fmt.Errorf("smtp: %w", core.ErrUpstream),
		},
	}

	n := NewNotifier(repo, mailer, 24*time.Hour, slog.Default())
	n.now = func() time.Time { return now }

	sent, err := n.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, repo.notified)

	// SMTP recovers; the same loan is picked up again.
	delete(mailer.failFor, "a@example.com")

	sent, err = n.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, repo.notified["loan-1"])
}

func TestSweepSkipsLoanReturnedMidSweep(t *testing.T) {
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	repo := newFakeSweepRepo(
		overdueLoan("loan-1", "a@example.com", now.Add(-72*time.Hour)),
	)
	repo.markErr["loan-1"] = fmt.Errorf(
		"mark notified: %w", core.ErrNotFound,
	)
	mailer := &recordingMailer{}

	n := NewNotifier(repo, mailer, 24*time.Hour, slog.Default())
	n.now = func() time.Time { return now }

	sent, err := n.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestSweepIgnoresLoansInsideGrace(t *testing.T) {
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	repo := newFakeSweepRepo(
		overdueLoan("loan-1", "a@example.com", now.Add(-12*time.Hour)),
	)
	mailer := &recordingMailer{}

	n := NewNotifier(repo, mailer, 24*time.Hour, slog.Default())
	n.now = func() time.Time { return now }

	sent, err := n.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, mailer.sent)
}
