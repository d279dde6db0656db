// AngelaMos | 2026
// templates.go

package mail

import (
	"fmt"
	"time"
)

const (
	SubjectVerification  = "Shelfmark Verification Code"
	SubjectDueReminder   = "Book Due Date Reminder"
	SubjectPasswordReset = "Shelfmark Password Recovery"
)

// VerificationBody renders the OTP email sent during registration.
func VerificationBody(name string, code int, expiresIn time.Duration) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px;">
  <h2>Verify your email</h2>
  <p>Hello %s,</p>
  <p>Your verification code is:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 4px;">%d</p>
  <p>The code expires in %d minutes. If you did not create an account, you
  can safely ignore this email.</p>
</div>`, name, code, int(expiresIn.Minutes()))
}

// DueReminderBody renders the overdue-loan reminder the sweep sends out.
func DueReminderBody(name, bookTitle string, dueDate time.Time) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px;">
  <h2>Due date reminder</h2>
  <p>Hello %s,</p>
  <p>This is a reminder that your book <strong>%s</strong> was due on
  %s. Please return or renew it to avoid further fines.</p>
  <p>Thank you!</p>
</div>`, name, bookTitle, dueDate.Format("January 2, 2006"))
}

// PasswordResetBody renders the reset email with the one-shot reset URL.
func PasswordResetBody(resetURL string, expiresIn time.Duration) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px;">
  <h2>Reset your password</h2>
  <p>You requested a password reset. Click the link below to choose a new
  password. The link expires in %d minutes.</p>
  <p><a href="%s">%s</a></p>
  <p>If you did not request this, ignore this email and your password will
  remain unchanged.</p>
</div>`, int(expiresIn.Minutes()), resetURL, resetURL)
}
