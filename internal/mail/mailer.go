// AngelaMos | 2026
// mailer.go

package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/angelamos/shelfmark/internal/config"
	"github.com/angelamos/shelfmark/internal/core"
)

// Sender dispatches a single message. The borrow notifier and the auth
// service depend on this interface so tests can swap in a recorder.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type Mailer struct {
	client      *gomail.Client
	fromAddress string
	fromName    string
	sendTimeout time.Duration
}

func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}

	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	return &Mailer{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		sendTimeout: sendTimeout,
	}, nil
}

// Send delivers one message over SMTP. A per-send timeout bounds the dial
// and delivery so a hung server cannot stall the caller indefinitely.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()

	if err := msg.FromFormat(m.fromName, m.fromAddress); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	sendCtx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()

	if err := m.client.DialAndSendWithContext(sendCtx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, core.ErrUpstream)
	}

	return nil
}

var _ Sender = (*Mailer)(nil)
