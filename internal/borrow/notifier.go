// AngelaMos | 2026
// notifier.go

package borrow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/angelamos/shelfmark/internal/core"
	"github.com/angelamos/shelfmark/internal/mail"
)

// Notifier sweeps the ledger for overdue loans and emails reminders. Each
// loan is reminded at most once; a failed send stays un-notified and is
// retried on the next sweep.
type Notifier struct {
	repo   Repository
	mailer mail.Sender
	grace  time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewNotifier(
	repo Repository,
	mailer mail.Sender,
	grace time.Duration,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		repo:   repo,
		mailer: mailer,
		grace:  grace,
		logger: logger,
		now:    time.Now,
	}
}

// Sweep processes one pass and reports how many reminders were sent. The
// notified flag commits only after a successful dispatch, and the flag
// update re-checks the loan is still open, so a return racing the sweep
// never produces a stale reminder.
func (n *Notifier) Sweep(ctx context.Context) (int, error) {
	dueBefore := n.now().Add(-n.grace)

	overdue, err := n.repo.ListOverdueUnnotified(ctx, dueBefore)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range overdue {
		loan := &overdue[i]

		body := mail.DueReminderBody(
			loan.UserName, loan.BookTitle, loan.DueDate,
		)
		if sendErr := n.mailer.Send(
			ctx, loan.UserEmail, mail.SubjectDueReminder, body,
		); sendErr != nil {
			n.logger.Warn("overdue reminder send failed",
				"borrow_id", loan.ID,
				"email", loan.UserEmail,
				"error", sendErr,
			)
			continue
		}

		if markErr := n.repo.MarkNotified(ctx, loan.ID); markErr != nil {
			// A concurrent return or sweep got there first.
			if errors.Is(markErr, core.ErrNotFound) {
				continue
			}
			n.logger.Error("failed to flag loan notified",
				"borrow_id", loan.ID,
				"error", markErr,
			)
			continue
		}

		sent++
	}

	return sent, nil
}
