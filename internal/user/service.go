// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelamos/shelfmark/internal/core"
	"github.com/angelamos/shelfmark/internal/upload"
)

type Service struct {
	repo    Repository
	uploads upload.Store
	logger  *slog.Logger
}

func NewService(
	repo Repository,
	uploads upload.Store,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		uploads: uploads,
		logger:  logger,
	}
}

// CreateAdmin provisions a pre-verified administrator account with an
// avatar image. Only an existing admin can reach this path.
func (s *Service) CreateAdmin(
	ctx context.Context,
	req AddAdminRequest,
	avatarContentType string,
	avatar io.Reader,
) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetVerifiedByEmail(ctx, email); err == nil {
		return nil, core.ConflictError("email is already registered")
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	if !upload.AllowedImageType(avatarContentType) {
		return nil, core.ValidationError(
			"avatar must be a jpeg, png, or webp image",
		)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	asset, err := s.uploads.Save(ctx, avatarContentType, avatar)
	if err != nil {
		return nil, fmt.Errorf("create admin: save avatar: %w", err)
	}

	admin := &User{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(req.Name),
		Email:           email,
		PasswordHash:    passwordHash,
		Role:            RoleAdmin,
		AccountVerified: true,
		AvatarID:        &asset.ID,
		AvatarURL:       &asset.URL,
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		if removeErr := s.uploads.Remove(ctx, asset.ID); removeErr != nil {
			s.logger.Warn("failed to remove orphaned avatar",
				"asset_id", asset.ID,
				"error", removeErr,
			)
		}
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.ConflictError("email is already registered")
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	return admin, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListVerified(ctx)
}

// ReapUnverified removes pending registrations older than the TTL. Runs on
// a schedule so abandoned signups cannot squat an email address forever.
func (s *Service) ReapUnverified(
	ctx context.Context,
	ttl time.Duration,
	now time.Time,
) (int64, error) {
	removed, err := s.repo.DeleteUnverifiedBefore(ctx, now.Add(-ttl))
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.Info("reaped unverified accounts", "count", removed)
	}

	return removed, nil
}
