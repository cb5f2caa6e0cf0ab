package domain

import (
	"regexp"
	"strings"
	"time"
)

type Account struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	FirstName           string     `json:"firstName"`
	LastName            *string    `json:"lastName,omitempty"`
	PasswordHash        string     `json:"-"`
	IsVerified          bool       `json:"isVerified"`
	ResetTokenDigest    *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type RegisterRequest struct {
	FirstName string  `json:"firstName"`
	LastName  *string `json:"lastName,omitempty"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *AccountInfo `json:"user"`
}

// AccountInfo is the public profile shape; never carries security fields.
type AccountInfo struct {
	FirstName string  `json:"firstName"`
	LastName  *string `json:"lastName,omitempty"`
	Email     string  `json:"email"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
}

// Validation methods
func (r *RegisterRequest) Validate() error {
	if r.FirstName == "" {
		return Validation("first name is required")
	}
	if r.LastName != nil && *r.LastName == "" {
		return Validation("last name must not be empty")
	}
	if r.Email == "" {
		return Validation("email is required")
	}
	if !isValidEmail(r.Email) {
		return Validation("invalid email format")
	}
	if r.Password == "" {
		return Validation("password is required")
	}
	if len(r.Password) < 8 {
		return Validation("password must be at least 8 characters")
	}
	return nil
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return Validation("email is required")
	}
	if !isValidEmail(r.Email) {
		return Validation("invalid email format")
	}
	if r.Password == "" {
		return Validation("password is required")
	}
	return nil
}

func (r *ResendVerificationRequest) Validate() error {
	if r.Email == "" {
		return Validation("email is required")
	}
	if !isValidEmail(r.Email) {
		return Validation("invalid email format")
	}
	return nil
}

func (r *ForgotPasswordRequest) Validate() error {
	if r.Email == "" {
		return Validation("email is required")
	}
	if !isValidEmail(r.Email) {
		return Validation("invalid email format")
	}
	return nil
}

func (r *ResetPasswordRequest) Validate() error {
	if r.Password == "" {
		return Validation("password is required")
	}
	if len(r.Password) < 8 {
		return Validation("password must be at least 8 characters")
	}
	return nil
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return Validation("current password is required")
	}
	if r.NewPassword == "" {
		return Validation("new password is required")
	}
	if len(r.NewPassword) < 8 {
		return Validation("new password must be at least 8 characters")
	}
	return nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.FirstName != nil && *r.FirstName == "" {
		return Validation("first name must not be empty")
	}
	if r.LastName != nil && *r.LastName == "" {
		return Validation("last name must not be empty")
	}
	if r.Email != nil && !isValidEmail(*r.Email) {
		return Validation("invalid email format")
	}
	if r.Password != nil && len(*r.Password) < 8 {
		return Validation("password must be at least 8 characters")
	}
	return nil
}

// Helper functions
func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

// Normalize methods
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	if r.LastName != nil {
		trimmed := strings.TrimSpace(*r.LastName)
		r.LastName = &trimmed
	}
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *ResendVerificationRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *ForgotPasswordRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *UpdateProfileRequest) Normalize() {
	if r.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &normalized
	}
	if r.FirstName != nil {
		trimmed := strings.TrimSpace(*r.FirstName)
		r.FirstName = &trimmed
	}
	if r.LastName != nil {
		trimmed := strings.TrimSpace(*r.LastName)
		r.LastName = &trimmed
	}
}

// Empty reports whether the update carries no fields at all.
func (r *UpdateProfileRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Email == nil && r.Password == nil
}

// ToAccountInfo converts an Account to its public profile shape.
func (a *Account) ToAccountInfo() *AccountInfo {
	return &AccountInfo{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
	}
}
