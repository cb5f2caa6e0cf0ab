package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/repository"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/auth"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/config"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/events"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/logger"
)

// Notifier queues outbound account emails. Enqueueing never blocks and
// never fails the calling operation; delivery problems are the
// dispatcher's to log.
type Notifier interface {
	EnqueueVerification(toEmail, toName, verifyURL string)
	EnqueuePasswordReset(toEmail, toName, resetURL string)
}

type AccountService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) error
	ResendVerification(ctx context.Context, req *domain.ResendVerificationRequest) error
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	RequestPasswordReset(ctx context.Context, req *domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, secret string, req *domain.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, accountID int64, req *domain.ChangePasswordRequest) error
	UpdateProfile(ctx context.Context, accountID int64, req *domain.UpdateProfileRequest) (*domain.Account, error)
}

type accountService struct {
	repo       repository.AccountRepository
	hasher     PasswordHasher
	notifier   Notifier
	eventBus   events.Publisher
	cfg        config.AuthConfig
	appBaseURL string
	lockout    LockoutPolicy

	// now is swapped for a fixed clock in tests.
	now func() time.Time
}

func NewAccountService(
	repo repository.AccountRepository,
	hasher PasswordHasher,
	notifier Notifier,
	eventBus events.Publisher,
	cfg config.AuthConfig,
	appBaseURL string,
) AccountService {
	return &accountService{
		repo:       repo,
		hasher:     hasher,
		notifier:   notifier,
		eventBus:   eventBus,
		cfg:        cfg,
		appBaseURL: appBaseURL,
		lockout:    LockoutPolicy{Threshold: cfg.LockoutThreshold, Duration: cfg.LockoutDuration},
		now:        time.Now,
	}
}

func (s *accountService) Register(ctx context.Context, req *domain.RegisterRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("check existing account: %w", err)
	}
	if existing != nil {
		return domain.Conflict("email already registered")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// The unique index backstops a registration race; the loser surfaces
	// the same Conflict from the repository.
	account, err := s.repo.Create(ctx, req, passwordHash)
	if err != nil {
		return err
	}

	s.sendVerification(ctx, account)

	if err := s.eventBus.Publish(ctx, events.AccountRegistered, events.AccountRegisteredEvent{
		AccountID:    account.ID,
		Email:        account.Email,
		RegisteredAt: account.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish account registered event", "error", err, "account_id", account.ID)
	}

	return nil
}

func (s *accountService) ResendVerification(ctx context.Context, req *domain.ResendVerificationRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	account, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return domain.NotFound("account not found")
	}
	if account.IsVerified {
		return domain.Validation("email already verified")
	}

	// Fresh token; its validity window starts now. No stored fields change.
	s.sendVerification(ctx, account)
	return nil
}

// VerifyEmail checks signature and expiry before anything else; a missing
// account then yields the same generic error so token probing cannot
// enumerate registered emails. The already-verified check runs last, which
// also rejects replay of a token that already succeeded once.
func (s *accountService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := auth.ParseVerificationToken(token, s.cfg.JWTSecret)
	if err != nil {
		return domain.Unauthorized("invalid or expired token")
	}

	account, err := s.repo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return domain.Unauthorized("invalid or expired token")
	}
	if account.IsVerified {
		return domain.Validation("email already verified")
	}

	if err := s.repo.MarkVerified(ctx, account.ID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.AccountVerified, events.AccountVerifiedEvent{
		AccountID:  account.ID,
		Email:      account.Email,
		VerifiedAt: s.now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish account verified event", "error", err, "account_id", account.ID)
	}

	return nil
}

func (s *accountService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		// Same message as a wrong password; never reveal which it was.
		return nil, domain.Unauthorized("invalid credentials")
	}

	if !account.IsVerified {
		return nil, domain.Unauthorized("email not verified")
	}

	now := s.now()
	decision, remaining := s.lockout.Evaluate(account.FailedLoginAttempts, account.LockedUntil, now)
	switch decision {
	case LockoutDeny:
		// No password compare while locked: saves the hash work and leaks
		// nothing about whether the password was right.
		return nil, lockedError(remaining)
	case LockoutAllowReset:
		if err := s.repo.UpdateLoginSecurity(ctx, account.ID, 0, nil); err != nil {
			return nil, fmt.Errorf("clear expired lock: %w", err)
		}
		account.FailedLoginAttempts = 0
		account.LockedUntil = nil
	}

	match, err := s.hasher.Compare(req.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		count, lockedUntil := s.lockout.RecordFailure(account.FailedLoginAttempts, now)
		if err := s.repo.UpdateLoginSecurity(ctx, account.ID, count, lockedUntil); err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		if lockedUntil != nil {
			logger.WarnContext(ctx, "Account locked after repeated failures", "account_id", account.ID, "locked_until", *lockedUntil)
			if err := s.eventBus.Publish(ctx, events.AccountLocked, events.AccountLockedEvent{
				AccountID:   account.ID,
				Email:       account.Email,
				LockedUntil: *lockedUntil,
			}); err != nil {
				logger.ErrorContext(ctx, "Failed to publish account locked event", "error", err, "account_id", account.ID)
			}
			return nil, lockedError(lockedUntil.Sub(now))
		}
		return nil, domain.Unauthorized("invalid credentials")
	}

	if err := s.repo.UpdateLoginSecurity(ctx, account.ID, 0, nil); err != nil {
		return nil, fmt.Errorf("reset login counters: %w", err)
	}

	token, err := auth.NewSessionToken(account.ID, s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &domain.LoginResponse{
		Token: token,
		User:  account.ToAccountInfo(),
	}, nil
}

func (s *accountService) RequestPasswordReset(ctx context.Context, req *domain.ForgotPasswordRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	account, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return domain.NotFound("account not found")
	}

	secret, digest, err := auth.NewResetSecret()
	if err != nil {
		return fmt.Errorf("generate reset secret: %w", err)
	}

	expiresAt := s.now().Add(s.cfg.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, account.ID, digest, expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	// The plaintext secret leaves this function only inside the email link
	// and is never persisted.
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, url.QueryEscape(secret))
	s.notifier.EnqueuePasswordReset(account.Email, account.FirstName, resetURL)

	return nil
}

func (s *accountService) ResetPassword(ctx context.Context, secret string, req *domain.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	digest := auth.DigestResetSecret(secret)
	account, err := s.repo.FindByResetDigest(ctx, digest)
	if err != nil {
		return fmt.Errorf("find account by reset digest: %w", err)
	}
	if account == nil {
		// Wrong secret, expired, or already consumed: one indistinguishable
		// answer for all three.
		return domain.Unauthorized("invalid or expired token")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ok, err := s.repo.ConsumeResetToken(ctx, account.ID, digest, passwordHash)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !ok {
		// Lost a race with another use of the same token.
		return domain.Unauthorized("invalid or expired token")
	}

	if err := s.eventBus.Publish(ctx, events.AccountPasswordReset, events.AccountPasswordResetEvent{
		AccountID: account.ID,
		ResetAt:   s.now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish password reset event", "error", err, "account_id", account.ID)
	}

	return nil
}

func (s *accountService) ChangePassword(ctx context.Context, accountID int64, req *domain.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return domain.NotFound("account not found")
	}

	match, err := s.hasher.Compare(req.CurrentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return domain.Unauthorized("invalid current password")
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, accountID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func (s *accountService) UpdateProfile(ctx context.Context, accountID int64, req *domain.UpdateProfileRequest) (*domain.Account, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Empty() {
		account, err := s.repo.FindByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("find account: %w", err)
		}
		if account == nil {
			return nil, domain.NotFound("account not found")
		}
		return account, nil
	}

	var passwordHash *string
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = &hash
	}

	account, err := s.repo.UpdateProfile(ctx, accountID, req, passwordHash)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.NotFound("account not found")
	}

	return account, nil
}

// sendVerification issues a fresh verification token and queues the email.
// Token trouble or a full queue never fails the caller; the user can always
// ask for a resend.
func (s *accountService) sendVerification(ctx context.Context, account *domain.Account) {
	token, err := auth.NewVerificationToken(account.Email, s.cfg.JWTSecret, s.cfg.VerificationTTL)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create verification token", "error", err, "account_id", account.ID)
		return
	}

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.appBaseURL, url.QueryEscape(token))
	s.notifier.EnqueueVerification(account.Email, account.FirstName, verifyURL)
}

func lockedError(remaining time.Duration) *domain.Error {
	return domain.Unauthorized(fmt.Sprintf("account locked, try again in %d minutes", RemainingMinutes(remaining)))
}
