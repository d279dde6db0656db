// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/shelfmark/internal/config"
	"github.com/angelamos/shelfmark/internal/core"
	"github.com/angelamos/shelfmark/internal/user"
)

type fakeUsers struct {
	user.Repository

	verified map[string]*user.User
	pending  map[string]*user.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		verified: make(map[string]*user.User),
		pending:  make(map[string]*user.User),
	}
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	f.pending[u.Email] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	for _, u := range f.verified {
		if u.ID == id {
			return u, nil
		}
	}
	for _, u := range f.pending {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeUsers) GetByEmail(
	_ context.Context,
	email string,
) (*user.User, error) {
	if u, ok := f.verified[email]; ok {
		return u, nil
	}
	if u, ok := f.pending[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (f *fakeUsers) GetVerifiedByEmail(
	_ context.Context,
	email string,
) (*user.User, error) {
	if u, ok := f.verified[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("get verified user: %w", core.ErrNotFound)
}

func (f *fakeUsers) GetUnverifiedByEmail(
	_ context.Context,
	email string,
) (*user.User, error) {
	if u, ok := f.pending[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("get unverified user: %w", core.ErrNotFound)
}

func (f *fakeUsers) ReissueVerificationCode(
	_ context.Context,
	id string,
	code int,
	expiry time.Time,
) error {
	for _, u := range f.pending {
		if u.ID == id {
			u.VerificationCode = &code
			u.VerificationCodeExpiry = &expiry
			u.FailedAttempts++
			return nil
		}
	}
	return fmt.Errorf("reissue verification code: %w", core.ErrNotFound)
}

func (f *fakeUsers) MarkVerified(
	_ context.Context,
	id string,
	code int,
) error {
	for email, u := range f.pending {
		if u.ID == id && u.VerificationCode != nil &&
			*u.VerificationCode == code {
			u.AccountVerified = true
			u.VerificationCode = nil
			u.VerificationCodeExpiry = nil
			f.verified[email] = u
			delete(f.pending, email)
			return nil
		}
	}
	return fmt.Errorf("mark verified: %w", core.ErrNotFound)
}

func (f *fakeUsers) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	for _, u := range f.verified {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	for _, u := range f.pending {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return fmt.Errorf("update password: %w", core.ErrNotFound)
}

func (f *fakeUsers) GetByResetTokenHash(
	_ context.Context,
	tokenHash string,
	now time.Time,
) (*user.User, error) {
	for _, u := range f.verified {
		if u.ResetPasswordToken != nil &&
			*u.ResetPasswordToken == tokenHash &&
			u.ResetPasswordExpiry != nil &&
			u.ResetPasswordExpiry.After(now) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user by reset token: %w", core.ErrNotFound)
}

func (f *fakeUsers) ClearResetToken(_ context.Context, id string) error {
	for _, u := range f.verified {
		if u.ID == id {
			u.ResetPasswordToken = nil
			u.ResetPasswordExpiry = nil
			return nil
		}
	}
	return nil
}

type recordingMailer struct {
	sent    []string
	sendErr error
}

func (m *recordingMailer) Send(
	_ context.Context,
	to, _, _ string,
) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	require.NoError(t, GenerateKeyPair(privPath, pubPath))

	manager, err := NewSessionManager(config.JWTConfig{
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
		SessionExpire:  time.Hour,
		Issuer:         "shelfmark-test",
		Audience:       "shelfmark-test",
	})
	require.NoError(t, err)

	return manager
}

func newTestService(
	t *testing.T,
	users user.Repository,
	mailer *recordingMailer,
) *Service {
	t.Helper()

	svc := NewService(
		users,
		newTestSessionManager(t),
		mailer,
		nil,
		config.LibraryConfig{
			OTPExpire:          5 * time.Minute,
			MaxRegisterRetries: 5,
			ResetTokenExpire:   15 * time.Minute,
		},
		"http://localhost:5173",
		slog.Default(),
	)
	return svc
}

func TestRegisterCreatesPendingAccount(t *testing.T) {
	users := newFakeUsers()
	mailer := &recordingMailer{}
	svc := newTestService(t, users, mailer)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Reader",
		Email:    "Reader@Example.com",
		Password: "secret-pw",
	})
	require.NoError(t, err)

	pending, ok := users.pending["reader@example.com"]
	require.True(t, ok, "pending account stored under normalized email")

	assert.False(t, pending.AccountVerified)
	assert.Equal(t, user.RoleUser, pending.Role)
	require.NotNil(t, pending.VerificationCode)
	assert.GreaterOrEqual(t, *pending.VerificationCode, 10000)
	assert.LessOrEqual(t, *pending.VerificationCode, 99999)
	require.NotNil(t, pending.VerificationCodeExpiry)
	assert.Equal(t, now.Add(5*time.Minute), *pending.VerificationCodeExpiry)
	assert.Equal(t, []string{"reader@example.com"}, mailer.sent)
}

func TestRegisterConflictsWithVerifiedAccount(t *testing.T) {
	users := newFakeUsers()
	users.verified["reader@example.com"] = &user.User{
		ID:              "user-1",
		Email:           "reader@example.com",
		AccountVerified: true,
	}
	mailer := &recordingMailer{}
	svc := newTestService(t, users, mailer)

	err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Reader",
		Email:    "reader@example.com",
		Password: "secret-pw",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Empty(t, mailer.sent)
}

func TestRegisterReissuesCodeForPendingAccount(t *testing.T) {
	code := 12345
	users := newFakeUsers()
	users.pending["reader@example.com"] = &user.User{
		ID:               "user-1",
		Email:            "reader@example.com",
		VerificationCode: &code,
		FailedAttempts:   1,
	}
	mailer := &recordingMailer{}
	svc := newTestService(t, users, mailer)

	err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Reader",
		Email:    "reader@example.com",
		Password: "secret-pw",
	})
	require.NoError(t, err)

	pending := users.pending["reader@example.com"]
	assert.Equal(t, 2, pending.FailedAttempts)
	require.NotNil(t, pending.VerificationCodeExpiry)
	assert.Len(t, mailer.sent, 1)
}

func TestRegisterRejectsAfterTooManyAttempts(t *testing.T) {
	users := newFakeUsers()
	users.pending["reader@example.com"] = &user.User{
		ID:             "user-1",
		Email:          "reader@example.com",
		FailedAttempts: 5,
	}
	mailer := &recordingMailer{}
	svc := newTestService(t, users, mailer)

	err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Reader",
		Email:    "reader@example.com",
		Password: "secret-pw",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Empty(t, mailer.sent)
}

func TestRegisterSendFailureIsUpstream(t *testing.T) {
	users := newFakeUsers()
	mailer := &recordingMailer{
		sendErr: fmt.Errorf("smtp: %w", core.ErrUpstream),
	}
	svc := newTestService(t, users, mailer)

	err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Reader",
		Email:    "reader@example.com",
		Password: "secret-pw",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUpstream)
}

func TestVerifyOTPSuccess(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	code := 54321
	expiry := now.Add(3 * time.Minute)

	users := newFakeUsers()
	users.pending["reader@example.com"] = &user.User{
		ID:                     "user-1",
		Name:                   "Reader",
		Email:                  "reader@example.com",
		Role:                   user.RoleUser,
		VerificationCode:       &code,
		VerificationCodeExpiry: &expiry,
	}
	svc := newTestService(t, users, &recordingMailer{})
	svc.now = func() time.Time { return now }

	resp, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "reader@example.com",
		OTP:   54321,
	})
	require.NoError(t, err)

	assert.True(t, resp.User.AccountVerified)
	assert.NotEmpty(t, resp.Token)

	claims, err := svc.sessions.VerifySessionToken(
		context.Background(), resp.Token,
	)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, user.RoleUser, claims.Role)

	_, stillPending := users.pending["reader@example.com"]
	assert.False(t, stillPending)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	code := 54321
	expiry := now.Add(3 * time.Minute)

	users := newFakeUsers()
	users.pending["reader@example.com"] = &user.User{
		ID:                     "user-1",
		Email:                  "reader@example.com",
		VerificationCode:       &code,
		VerificationCodeExpiry: &expiry,
	}
	svc := newTestService(t, users, &recordingMailer{})
	svc.now = func() time.Time { return now }

	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "reader@example.com",
		OTP:   11111,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestVerifyOTPExpiredCode(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	code := 54321
	expiry := now.Add(-time.Minute)

	users := newFakeUsers()
	users.pending["reader@example.com"] = &user.User{
		ID:                     "user-1",
		Email:                  "reader@example.com",
		VerificationCode:       &code,
		VerificationCodeExpiry: &expiry,
	}
	svc := newTestService(t, users, &recordingMailer{})
	svc.now = func() time.Time { return now }

	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "reader@example.com",
		OTP:   54321,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestLoginSuccess(t *testing.T) {
	hash, err := core.HashPassword("secret-pw")
	require.NoError(t, err)

	users := newFakeUsers()
	users.verified["reader@example.com"] = &user.User{
		ID:              "user-1",
		Name:            "Reader",
		Email:           "reader@example.com",
		PasswordHash:    hash,
		Role:            user.RoleUser,
		AccountVerified: true,
	}
	svc := newTestService(t, users, &recordingMailer{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "reader@example.com",
		Password: "secret-pw",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "user-1", resp.User.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := core.HashPassword("secret-pw")
	require.NoError(t, err)

	users := newFakeUsers()
	users.verified["reader@example.com"] = &user.User{
		ID:           "user-1",
		Email:        "reader@example.com",
		PasswordHash: hash,
	}
	svc := newTestService(t, users, &recordingMailer{})

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "reader@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, newFakeUsers(), &recordingMailer{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestResetPasswordWithValidToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	token, err := core.GenerateResetToken()
	require.NoError(t, err)

	hash := core.HashToken(token)
	expiry := now.Add(10 * time.Minute)

	users := newFakeUsers()
	users.verified["reader@example.com"] = &user.User{
		ID:                  "user-1",
		Email:               "reader@example.com",
		AccountVerified:     true,
		ResetPasswordToken:  &hash,
		ResetPasswordExpiry: &expiry,
	}
	svc := newTestService(t, users, &recordingMailer{})
	svc.now = func() time.Time { return now }

	resp, err := svc.ResetPassword(
		context.Background(),
		token,
		ResetPasswordRequest{
			Password:        "new-password",
			ConfirmPassword: "new-password",
		},
	)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	valid, verifyErr := core.VerifyPassword(
		"new-password",
		users.verified["reader@example.com"].PasswordHash,
	)
	require.NoError(t, verifyErr)
	assert.True(t, valid)
}

func TestResetPasswordBadToken(t *testing.T) {
	svc := newTestService(t, newFakeUsers(), &recordingMailer{})

	_, err := svc.ResetPassword(
		context.Background(),
		"bogus-token",
		ResetPasswordRequest{
			Password:        "new-password",
			ConfirmPassword: "new-password",
		},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
