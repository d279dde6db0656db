// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelamos/shelfmark/internal/config"
	"github.com/angelamos/shelfmark/internal/core"
	"github.com/angelamos/shelfmark/internal/mail"
	"github.com/angelamos/shelfmark/internal/middleware"
	"github.com/angelamos/shelfmark/internal/user"
)

const (
	otpDigits          = 5
	blacklistKeyPrefix = "session:blacklist:"
)

type Service struct {
	users       user.Repository
	sessions    *SessionManager
	mailer      mail.Sender
	redis       *redis.Client
	library     config.LibraryConfig
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	users user.Repository,
	sessions *SessionManager,
	mailer mail.Sender,
	redisClient *redis.Client,
	library config.LibraryConfig,
	frontendURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:       users,
		sessions:    sessions,
		mailer:      mailer,
		redis:       redisClient,
		library:     library,
		frontendURL: frontendURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates a pending account and emails a one-time verification
// code. A verified account on the same email is a hard conflict; repeated
// unverified attempts re-issue the code up to the configured cap.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	email := normalizeEmail(req.Email)

	if _, err := s.users.GetVerifiedByEmail(ctx, email); err == nil {
		return core.ConflictError("email is already registered")
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("register: %w", err)
	}

	code, err := core.GenerateOTP(otpDigits)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	expiry := s.now().Add(s.library.OTPExpire)

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	pending, err := s.users.GetUnverifiedByEmail(ctx, email)
	switch {
	case err == nil:
		if pending.FailedAttempts >= s.library.MaxRegisterRetries {
			return core.ConflictError(
				"too many registration attempts, please try again later",
			)
		}
		if updateErr := s.users.UpdatePassword(
			ctx, pending.ID, passwordHash,
		); updateErr != nil {
			return fmt.Errorf("register: %w", updateErr)
		}
		if reissueErr := s.users.ReissueVerificationCode(
			ctx, pending.ID, code, expiry,
		); reissueErr != nil {
			return fmt.Errorf("register: %w", reissueErr)
		}
		pending.Name = strings.TrimSpace(req.Name)

	case errors.Is(err, core.ErrNotFound):
		pending = &user.User{
			ID:                     uuid.New().String(),
			Name:                   strings.TrimSpace(req.Name),
			Email:                  email,
			PasswordHash:           passwordHash,
			Role:                   user.RoleUser,
			AccountVerified:        false,
			VerificationCode:       &code,
			VerificationCodeExpiry: &expiry,
		}
		if createErr := s.users.Create(ctx, pending); createErr != nil {
			return fmt.Errorf("register: %w", createErr)
		}

	default:
		return fmt.Errorf("register: %w", err)
	}

	body := mail.VerificationBody(pending.Name, code, s.library.OTPExpire)
	if sendErr := s.mailer.Send(
		ctx, email, mail.SubjectVerification, body,
	); sendErr != nil {
		s.logger.Error("failed to send verification email",
			"email", email,
			"error", sendErr,
		)
		return core.UpstreamError("failed to send verification email")
	}

	return nil
}

// VerifyOTP flips the pending account to verified when the presented code
// matches exactly and has not expired, then opens a session.
func (s *Service) VerifyOTP(
	ctx context.Context,
	req VerifyOTPRequest,
) (*SessionResponse, error) {
	email := normalizeEmail(req.Email)

	pending, err := s.users.GetUnverifiedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("account")
		}
		return nil, fmt.Errorf("verify otp: %w", err)
	}

	if pending.CodeExpired(s.now()) {
		return nil, core.ValidationError("verification code has expired")
	}

	if pending.VerificationCode == nil ||
		*pending.VerificationCode != req.OTP {
		return nil, core.ValidationError("invalid verification code")
	}

	if err := s.users.MarkVerified(ctx, pending.ID, req.OTP); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ValidationError("invalid verification code")
		}
		return nil, fmt.Errorf("verify otp: %w", err)
	}

	pending.AccountVerified = true

	return s.openSession(pending)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*SessionResponse, error) {
	email := normalizeEmail(req.Email)

	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, core.UnauthorizedError("invalid email or password")
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&account.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if !valid {
		return nil, core.UnauthorizedError("invalid email or password")
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.users.UpdatePassword(ctx, account.ID, newHash)
	}

	return s.openSession(account)
}

// Logout blacklists the session's jti until its natural expiry so a
// captured token cannot outlive the logout.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.SessionClaims,
) error {
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if ttl <= 0 {
		return nil
	}

	key := blacklistKeyPrefix + claims.TokenID
	if err := s.redis.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist session: %w", err)
	}

	return nil
}

// VerifySessionToken satisfies the authenticator middleware contract:
// signature verification plus a revocation check against the blacklist.
func (s *Service) VerifySessionToken(
	ctx context.Context,
	token string,
) (*middleware.SessionClaims, error) {
	claims, err := s.sessions.VerifySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}

	key := blacklistKeyPrefix + claims.TokenID
	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		// Redis outage must not lock every user out; revocation is
		// best effort until it recovers.
		s.logger.Warn("session blacklist check failed", "error", err)
		return claims, nil
	}

	if exists > 0 {
		return nil, fmt.Errorf("verify session: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(account)
	return &resp, nil
}

// ForgotPassword issues a reset token. Only the SHA-256 hash is stored;
// the raw token goes into the emailed reset link. A failed send clears the
// token fields so no orphaned credential stays live.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	account, err := s.users.GetVerifiedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("account")
		}
		return fmt.Errorf("forgot password: %w", err)
	}

	token, err := core.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	expiry := s.now().Add(s.library.ResetTokenExpire)
	if err := s.users.SetResetToken(
		ctx, account.ID, core.HashToken(token), expiry,
	); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	resetURL := strings.TrimSuffix(s.frontendURL, "/") +
		"/password/reset/" + token
	body := mail.PasswordResetBody(resetURL, s.library.ResetTokenExpire)

	if sendErr := s.mailer.Send(
		ctx, email, mail.SubjectPasswordReset, body,
	); sendErr != nil {
		if clearErr := s.users.ClearResetToken(ctx, account.ID); clearErr != nil {
			s.logger.Error("failed to clear orphaned reset token",
				"user_id", account.ID,
				"error", clearErr,
			)
		}
		s.logger.Error("failed to send password reset email",
			"email", email,
			"error", sendErr,
		)
		return core.UpstreamError("failed to send password reset email")
	}

	return nil
}

func (s *Service) ResetPassword(
	ctx context.Context,
	token string,
	req ResetPasswordRequest,
) (*SessionResponse, error) {
	account, err := s.users.GetByResetTokenHash(
		ctx, core.HashToken(token), s.now(),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ValidationError(
				"reset token is invalid or has expired",
			)
		}
		return nil, fmt.Errorf("reset password: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, account.ID, passwordHash); err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}

	if err := s.users.ClearResetToken(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}

	return s.openSession(account)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID string,
	req UpdatePasswordRequest,
) error {
	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		req.CurrentPassword,
		account.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if !valid {
		return core.UnauthorizedError("current password is incorrect")
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func (s *Service) openSession(
	account *user.User,
) (*SessionResponse, error) {
	token, expiresAt, err := s.sessions.CreateSessionToken(
		account.ID, account.Role,
	)
	if err != nil {
		return nil, fmt.Errorf("create session token: %w", err)
	}

	return &SessionResponse{
		User:      toUserResponse(account),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func toUserResponse(account *user.User) UserResponse {
	resp := UserResponse{
		ID:              account.ID,
		Name:            account.Name,
		Email:           account.Email,
		Role:            account.Role,
		AccountVerified: account.AccountVerified,
		CreatedAt:       account.CreatedAt,
	}
	if account.AvatarURL != nil {
		resp.AvatarURL = *account.AvatarURL
	}
	return resp
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
