// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                     string     `db:"id"`
	Name                   string     `db:"name"`
	Email                  string     `db:"email"`
	PasswordHash           string     `db:"password_hash"`
	Role                   string     `db:"role"`
	AccountVerified        bool       `db:"account_verified"`
	VerificationCode       *int       `db:"verification_code"`
	VerificationCodeExpiry *time.Time `db:"verification_code_expiry"`
	ResetPasswordToken     *string    `db:"reset_password_token"`
	ResetPasswordExpiry    *time.Time `db:"reset_password_expiry"`
	FailedAttempts         int        `db:"failed_attempts"`
	AvatarID               *string    `db:"avatar_id"`
	AvatarURL              *string    `db:"avatar_url"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CodeExpired reports whether the pending verification code has lapsed.
func (u *User) CodeExpired(now time.Time) bool {
	return u.VerificationCodeExpiry == nil || now.After(*u.VerificationCodeExpiry)
}
