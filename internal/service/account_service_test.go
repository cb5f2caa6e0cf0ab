package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/auth"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/config"
)

// ---------- Fakes ----------

type fakeAccountRepo struct {
	nextID   int64
	accounts map[int64]*domain.Account
	now      func() time.Time
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		nextID:   1,
		accounts: make(map[int64]*domain.Account),
		now:      time.Now,
	}
}

func (f *fakeAccountRepo) Create(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.Account, error) {
	for _, a := range f.accounts {
		if a.Email == req.Email {
			return nil, domain.Conflict("email already registered")
		}
	}

	now := f.now()
	a := &domain.Account{
		ID:           f.nextID,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.nextID++
	f.accounts[a.ID] = a

	out := *a
	return &out, nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range f.accounts {
		if a.Email == email {
			out := *a
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

func (f *fakeAccountRepo) MarkVerified(_ context.Context, id int64) error {
	a, ok := f.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.IsVerified = true
	a.UpdatedAt = f.now()
	return nil
}

func (f *fakeAccountRepo) UpdateLoginSecurity(_ context.Context, id int64, failedAttempts int, lockedUntil *time.Time) error {
	a, ok := f.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.FailedLoginAttempts = failedAttempts
	if lockedUntil != nil {
		t := *lockedUntil
		a.LockedUntil = &t
	} else {
		a.LockedUntil = nil
	}
	a.UpdatedAt = f.now()
	return nil
}

func (f *fakeAccountRepo) SetResetToken(_ context.Context, id int64, digest string, expiresAt time.Time) error {
	a, ok := f.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.ResetTokenDigest = &digest
	t := expiresAt
	a.ResetTokenExpiresAt = &t
	a.UpdatedAt = f.now()
	return nil
}

func (f *fakeAccountRepo) FindByResetDigest(_ context.Context, digest string) (*domain.Account, error) {
	for _, a := range f.accounts {
		if a.ResetTokenDigest != nil && *a.ResetTokenDigest == digest &&
			a.ResetTokenExpiresAt != nil && a.ResetTokenExpiresAt.After(f.now()) {
			out := *a
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) ConsumeResetToken(_ context.Context, id int64, digest, newPasswordHash string) (bool, error) {
	a, ok := f.accounts[id]
	if !ok {
		return false, nil
	}
	if a.ResetTokenDigest == nil || *a.ResetTokenDigest != digest ||
		a.ResetTokenExpiresAt == nil || !a.ResetTokenExpiresAt.After(f.now()) {
		return false, nil
	}
	a.PasswordHash = newPasswordHash
	a.ResetTokenDigest = nil
	a.ResetTokenExpiresAt = nil
	a.UpdatedAt = f.now()
	return true, nil
}

func (f *fakeAccountRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	a, ok := f.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = f.now()
	return nil
}

func (f *fakeAccountRepo) UpdateProfile(_ context.Context, id int64, req *domain.UpdateProfileRequest, passwordHash *string) (*domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	if req.Email != nil {
		for otherID, other := range f.accounts {
			if otherID != id && other.Email == *req.Email {
				return nil, domain.Conflict("email already registered")
			}
		}
		a.Email = *req.Email
	}
	if req.FirstName != nil {
		a.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		ln := *req.LastName
		a.LastName = &ln
	}
	if passwordHash != nil {
		a.PasswordHash = *passwordHash
	}
	a.UpdatedAt = f.now()

	out := *a
	return &out, nil
}

// fakeHasher keeps tests fast; argon2id itself is exercised in targeted
// hasher tests.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(password, hash string) (bool, error) {
	return hash == "hashed:"+password, nil
}

type sentMail struct {
	toEmail string
	toName  string
	link    string
}

type fakeNotifier struct {
	verifications []sentMail
	resets        []sentMail
}

func (f *fakeNotifier) EnqueueVerification(toEmail, toName, verifyURL string) {
	f.verifications = append(f.verifications, sentMail{toEmail, toName, verifyURL})
}

func (f *fakeNotifier) EnqueuePasswordReset(toEmail, toName, resetURL string) {
	f.resets = append(f.resets, sentMail{toEmail, toName, resetURL})
}

type fakePublisher struct {
	subjects []string
}

func (f *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ---------- Setup ----------

const (
	testEmail    = "jane@example.com"
	testPassword = "secret123"
)

func newTestService(t *testing.T) (*accountService, *fakeAccountRepo, *fakeNotifier, *fakePublisher, *fakeClock) {
	t.Helper()

	repo := newFakeAccountRepo()
	notifier := &fakeNotifier{}
	bus := &fakePublisher{}
	clock := &fakeClock{t: time.Now()}

	cfg := config.AuthConfig{
		JWTSecret:        "test-secret",
		SessionTTL:       time.Hour,
		VerificationTTL:  time.Hour,
		ResetTokenTTL:    time.Hour,
		LockoutThreshold: 5,
		LockoutDuration:  30 * time.Minute,
	}

	svc := NewAccountService(repo, fakeHasher{}, notifier, bus, cfg, "http://app.test").(*accountService)
	svc.now = clock.Now
	repo.now = clock.Now

	return svc, repo, notifier, bus, clock
}

func register(t *testing.T, svc *accountService) {
	t.Helper()
	err := svc.Register(context.Background(), &domain.RegisterRequest{
		FirstName: "Jane",
		LastName:  strPtr("Doe"),
		Email:     testEmail,
		Password:  testPassword,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func registerVerified(t *testing.T, svc *accountService, repo *fakeAccountRepo) *domain.Account {
	t.Helper()
	register(t, svc)
	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account == nil {
		t.Fatal("account not created")
	}
	if err := repo.MarkVerified(context.Background(), account.ID); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}
	account, _ = repo.FindByEmail(context.Background(), testEmail)
	return account
}

func login(t *testing.T, svc *accountService, email, password string) (*domain.LoginResponse, error) {
	t.Helper()
	return svc.Login(context.Background(), &domain.LoginRequest{Email: email, Password: password})
}

func wantKind(t *testing.T, err error, kind domain.ErrorKind) *domain.Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected domain error, got %T: %v", err, err)
	}
	if de.Kind != kind {
		t.Fatalf("expected kind %d, got %d (%q)", kind, de.Kind, de.Message)
	}
	return de
}

func strPtr(s string) *string { return &s }

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatalf("no token in link %q", link)
	}
	return token
}

// ---------- Registration ----------

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	svc, repo, notifier, bus, _ := newTestService(t)

	register(t, svc)

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account == nil {
		t.Fatal("account not persisted")
	}
	if account.IsVerified {
		t.Error("new account must start unverified")
	}
	if account.FailedLoginAttempts != 0 {
		t.Errorf("expected 0 failed attempts, got %d", account.FailedLoginAttempts)
	}
	if account.PasswordHash == testPassword {
		t.Error("password stored in plaintext")
	}

	if len(notifier.verifications) != 1 {
		t.Fatalf("expected 1 verification mail, got %d", len(notifier.verifications))
	}
	if notifier.verifications[0].toEmail != testEmail {
		t.Errorf("mail sent to %q", notifier.verifications[0].toEmail)
	}

	// The link carries a real verification token.
	token := tokenFromLink(t, notifier.verifications[0].link)
	claims, err := auth.ParseVerificationToken(token, "test-secret")
	if err != nil {
		t.Fatalf("verification token invalid: %v", err)
	}
	if claims.Email != testEmail {
		t.Errorf("token subject %q, want %q", claims.Email, testEmail)
	}

	if len(bus.subjects) != 1 || bus.subjects[0] != "account.registered" {
		t.Errorf("expected account.registered event, got %v", bus.subjects)
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)

	register(t, svc)

	err := svc.Register(context.Background(), &domain.RegisterRequest{
		FirstName: "Janet",
		Email:     testEmail,
		Password:  "otherpass1",
	})
	wantKind(t, err, domain.KindConflict)

	if len(repo.accounts) != 1 {
		t.Errorf("expected exactly one account, got %d", len(repo.accounts))
	}
}

func TestRegisterInvalidInput(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	err := svc.Register(context.Background(), &domain.RegisterRequest{
		FirstName: "",
		Email:     testEmail,
		Password:  testPassword,
	})
	wantKind(t, err, domain.KindValidation)
}

// ---------- Resend verification ----------

func TestResendVerification(t *testing.T) {
	svc, repo, notifier, _, _ := newTestService(t)

	err := svc.ResendVerification(context.Background(), &domain.ResendVerificationRequest{Email: testEmail})
	wantKind(t, err, domain.KindNotFound)

	register(t, svc)

	if err := svc.ResendVerification(context.Background(), &domain.ResendVerificationRequest{Email: testEmail}); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}
	if len(notifier.verifications) != 2 {
		t.Fatalf("expected 2 verification mails, got %d", len(notifier.verifications))
	}

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	repo.MarkVerified(context.Background(), account.ID)

	err = svc.ResendVerification(context.Background(), &domain.ResendVerificationRequest{Email: testEmail})
	de := wantKind(t, err, domain.KindValidation)
	if de.Message != "email already verified" {
		t.Errorf("unexpected message %q", de.Message)
	}
}

// ---------- Verify email ----------

func TestVerifyEmailFlow(t *testing.T) {
	svc, repo, notifier, _, _ := newTestService(t)

	register(t, svc)
	token := tokenFromLink(t, notifier.verifications[0].link)

	if err := svc.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if !account.IsVerified {
		t.Error("account not marked verified")
	}

	// Replaying the same token after success must fail, not re-succeed.
	err := svc.VerifyEmail(context.Background(), token)
	de := wantKind(t, err, domain.KindValidation)
	if de.Message != "email already verified" {
		t.Errorf("replay gave %q", de.Message)
	}
}

func TestVerifyEmailBadToken(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		err := svc.VerifyEmail(context.Background(), bad)
		de := wantKind(t, err, domain.KindUnauthorized)
		if de.Message != "invalid or expired token" {
			t.Errorf("token %q gave message %q", bad, de.Message)
		}
	}
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	register(t, svc)

	token, err := auth.NewVerificationToken(testEmail, "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("NewVerificationToken: %v", err)
	}

	verr := svc.VerifyEmail(context.Background(), token)
	de := wantKind(t, verr, domain.KindUnauthorized)
	if de.Message != "invalid or expired token" {
		t.Errorf("expired token gave %q", de.Message)
	}
}

func TestVerifyEmailUnknownAccountLooksLikeBadToken(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	// Structurally valid token for an email that was never registered: the
	// caller cannot tell this apart from a forged token.
	token, err := auth.NewVerificationToken("ghost@example.com", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewVerificationToken: %v", err)
	}

	verr := svc.VerifyEmail(context.Background(), token)
	de := wantKind(t, verr, domain.KindUnauthorized)
	if de.Message != "invalid or expired token" {
		t.Errorf("unknown account gave %q", de.Message)
	}
}

func TestVerifyEmailRejectsSessionToken(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	registerVerified(t, svc, repo)

	session, err := auth.NewSessionToken(1, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}

	verr := svc.VerifyEmail(context.Background(), session)
	wantKind(t, verr, domain.KindUnauthorized)
}

// ---------- Login ----------

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := login(t, svc, "nobody@example.com", testPassword)
	de := wantKind(t, err, domain.KindUnauthorized)
	if de.Message != "invalid credentials" {
		t.Errorf("unknown email leaked: %q", de.Message)
	}
}

func TestLoginUnverifiedAccount(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	register(t, svc)

	_, err := login(t, svc, testEmail, testPassword)
	de := wantKind(t, err, domain.KindUnauthorized)
	if de.Message != "email not verified" {
		t.Errorf("unexpected message %q", de.Message)
	}

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account.FailedLoginAttempts != 0 {
		t.Errorf("counters mutated on unverified login: %d", account.FailedLoginAttempts)
	}
}

func TestLoginSuccessReturnsTokenAndProfile(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	registerVerified(t, svc, repo)

	resp, err := login(t, svc, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := auth.ParseSessionToken(resp.Token, "test-secret")
	if err != nil {
		t.Fatalf("session token invalid: %v", err)
	}
	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if claims.Sub != account.ID {
		t.Errorf("token subject %d, want %d", claims.Sub, account.ID)
	}

	if resp.User == nil || resp.User.Email != testEmail || resp.User.FirstName != "Jane" {
		t.Errorf("unexpected profile %+v", resp.User)
	}
}

func TestLoginWrongPasswordGenericError(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	registerVerified(t, svc, repo)

	_, err := login(t, svc, testEmail, "wrongpass1")
	de := wantKind(t, err, domain.KindUnauthorized)
	if de.Message != "invalid credentials" {
		t.Errorf("wrong password leaked: %q", de.Message)
	}

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account.FailedLoginAttempts != 1 {
		t.Errorf("expected 1 failed attempt, got %d", account.FailedLoginAttempts)
	}
}

func TestLoginLocksAfterThreshold(t *testing.T) {
	svc, repo, _, bus, clock := newTestService(t)
	registerVerified(t, svc, repo)

	for i := 0; i < 4; i++ {
		_, err := login(t, svc, testEmail, "wrongpass1")
		de := wantKind(t, err, domain.KindUnauthorized)
		if de.Message != "invalid credentials" {
			t.Fatalf("attempt %d gave %q", i+1, de.Message)
		}
	}

	// The fifth failure trips the lock and says so.
	_, err := login(t, svc, testEmail, "wrongpass1")
	de := wantKind(t, err, domain.KindUnauthorized)
	if !strings.HasPrefix(de.Message, "account locked") {
		t.Fatalf("fifth failure gave %q", de.Message)
	}

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account.FailedLoginAttempts != 5 {
		t.Errorf("expected 5 failed attempts, got %d", account.FailedLoginAttempts)
	}
	if account.LockedUntil == nil {
		t.Fatal("lockedUntil not set")
	}
	if want := clock.Now().Add(30 * time.Minute); !account.LockedUntil.Equal(want) {
		t.Errorf("lockedUntil %v, want %v", account.LockedUntil, want)
	}

	locked := false
	for _, s := range bus.subjects {
		if s == "account.locked" {
			locked = true
		}
	}
	if !locked {
		t.Errorf("no account.locked event in %v", bus.subjects)
	}
}

func TestLoginCorrectPasswordWhileLockedStillFails(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	registerVerified(t, svc, repo)

	for i := 0; i < 5; i++ {
		login(t, svc, testEmail, "wrongpass1")
	}

	_, err := login(t, svc, testEmail, testPassword)
	de := wantKind(t, err, domain.KindUnauthorized)
	if !strings.HasPrefix(de.Message, "account locked") {
		t.Fatalf("locked login gave %q", de.Message)
	}

	// The correct-password attempt must not have reset anything.
	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account.FailedLoginAttempts != 5 || account.LockedUntil == nil {
		t.Errorf("locked state mutated: attempts=%d lockedUntil=%v", account.FailedLoginAttempts, account.LockedUntil)
	}
}

func TestLoginAfterLockExpiresSucceedsAndResets(t *testing.T) {
	svc, repo, _, _, clock := newTestService(t)
	registerVerified(t, svc, repo)

	for i := 0; i < 5; i++ {
		login(t, svc, testEmail, "wrongpass1")
	}

	clock.Advance(31 * time.Minute)

	resp, err := login(t, svc, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
	if resp.Token == "" {
		t.Error("no session token issued")
	}

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account.FailedLoginAttempts != 0 {
		t.Errorf("failed attempts not reset: %d", account.FailedLoginAttempts)
	}
	if account.LockedUntil != nil {
		t.Errorf("lockedUntil not cleared: %v", account.LockedUntil)
	}
}

func TestLoginExpiredLockHealsBeforeWrongPassword(t *testing.T) {
	svc, repo, _, _, clock := newTestService(t)
	registerVerified(t, svc, repo)

	for i := 0; i < 5; i++ {
		login(t, svc, testEmail, "wrongpass1")
	}

	clock.Advance(31 * time.Minute)

	// The expired lock is observed and cleared first, so this wrong
	// password counts as failure one, not six.
	_, err := login(t, svc, testEmail, "wrongpass1")
	de := wantKind(t, err, domain.KindUnauthorized)
	if de.Message != "invalid credentials" {
		t.Fatalf("expected fresh counter, got %q", de.Message)
	}

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account.FailedLoginAttempts != 1 {
		t.Errorf("expected 1 failed attempt after heal, got %d", account.FailedLoginAttempts)
	}
	if account.LockedUntil != nil {
		t.Errorf("lockedUntil should be cleared, got %v", account.LockedUntil)
	}
}

// ---------- Password reset ----------

func TestRequestPasswordReset(t *testing.T) {
	svc, repo, notifier, _, clock := newTestService(t)

	err := svc.RequestPasswordReset(context.Background(), &domain.ForgotPasswordRequest{Email: testEmail})
	wantKind(t, err, domain.KindNotFound)

	registerVerified(t, svc, repo)

	if err := svc.RequestPasswordReset(context.Background(), &domain.ForgotPasswordRequest{Email: testEmail}); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	if len(notifier.resets) != 1 {
		t.Fatalf("expected 1 reset mail, got %d", len(notifier.resets))
	}
	secret := tokenFromLink(t, notifier.resets[0].link)

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account.ResetTokenDigest == nil || account.ResetTokenExpiresAt == nil {
		t.Fatal("reset fields not stored")
	}
	if *account.ResetTokenDigest == secret {
		t.Error("plaintext secret stored instead of digest")
	}
	if got := auth.DigestResetSecret(secret); got != *account.ResetTokenDigest {
		t.Error("stored digest does not match the mailed secret")
	}
	if want := clock.Now().Add(time.Hour); !account.ResetTokenExpiresAt.Equal(want) {
		t.Errorf("expiry %v, want %v", account.ResetTokenExpiresAt, want)
	}
}

func TestResetPasswordConsumesToken(t *testing.T) {
	svc, repo, notifier, _, _ := newTestService(t)
	registerVerified(t, svc, repo)

	svc.RequestPasswordReset(context.Background(), &domain.ForgotPasswordRequest{Email: testEmail})
	secret := tokenFromLink(t, notifier.resets[0].link)

	if err := svc.ResetPassword(context.Background(), secret, &domain.ResetPasswordRequest{Password: "newpass123"}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	account, _ := repo.FindByEmail(context.Background(), testEmail)
	if account.ResetTokenDigest != nil || account.ResetTokenExpiresAt != nil {
		t.Error("reset fields not cleared after use")
	}

	if _, err := login(t, svc, testEmail, "newpass123"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, err := login(t, svc, testEmail, testPassword); err == nil {
		t.Error("old password still accepted")
	}

	// Second use of the same secret must fail with the generic error.
	err := svc.ResetPassword(context.Background(), secret, &domain.ResetPasswordRequest{Password: "again1234"})
	de := wantKind(t, err, domain.KindUnauthorized)
	if de.Message != "invalid or expired token" {
		t.Errorf("reuse gave %q", de.Message)
	}
}

func TestResetPasswordExpiredSecret(t *testing.T) {
	svc, repo, notifier, _, clock := newTestService(t)
	registerVerified(t, svc, repo)

	svc.RequestPasswordReset(context.Background(), &domain.ForgotPasswordRequest{Email: testEmail})
	secret := tokenFromLink(t, notifier.resets[0].link)

	clock.Advance(61 * time.Minute)

	err := svc.ResetPassword(context.Background(), secret, &domain.ResetPasswordRequest{Password: "newpass123"})
	de := wantKind(t, err, domain.KindUnauthorized)
	if de.Message != "invalid or expired token" {
		t.Errorf("expired secret gave %q", de.Message)
	}
}

func TestResetPasswordWrongSecret(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	registerVerified(t, svc, repo)
	svc.RequestPasswordReset(context.Background(), &domain.ForgotPasswordRequest{Email: testEmail})

	err := svc.ResetPassword(context.Background(), "not-the-secret", &domain.ResetPasswordRequest{Password: "newpass123"})
	wantKind(t, err, domain.KindUnauthorized)
}

// ---------- Change password ----------

func TestChangePassword(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	account := registerVerified(t, svc, repo)

	err := svc.ChangePassword(context.Background(), 999, &domain.ChangePasswordRequest{
		CurrentPassword: testPassword, NewPassword: "newpass123",
	})
	wantKind(t, err, domain.KindNotFound)

	err = svc.ChangePassword(context.Background(), account.ID, &domain.ChangePasswordRequest{
		CurrentPassword: "wrongpass1", NewPassword: "newpass123",
	})
	de := wantKind(t, err, domain.KindUnauthorized)
	if de.Message != "invalid current password" {
		t.Errorf("unexpected message %q", de.Message)
	}

	if err := svc.ChangePassword(context.Background(), account.ID, &domain.ChangePasswordRequest{
		CurrentPassword: testPassword, NewPassword: "newpass123",
	}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := login(t, svc, testEmail, "newpass123"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}

// ---------- Update profile ----------

func TestUpdateProfileSubset(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	account := registerVerified(t, svc, repo)

	updated, err := svc.UpdateProfile(context.Background(), account.ID, &domain.UpdateProfileRequest{
		FirstName: strPtr("Janet"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName != "Janet" {
		t.Errorf("first name not updated: %q", updated.FirstName)
	}
	if updated.Email != testEmail || *updated.LastName != "Doe" {
		t.Error("untouched fields changed")
	}
}

func TestUpdateProfileEmptyIsNoop(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	account := registerVerified(t, svc, repo)
	before, _ := repo.FindByID(context.Background(), account.ID)

	current, err := svc.UpdateProfile(context.Background(), account.ID, &domain.UpdateProfileRequest{})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if current.UpdatedAt != before.UpdatedAt {
		t.Error("empty update should not write")
	}
	if current.Email != testEmail {
		t.Errorf("unexpected record %+v", current)
	}
}

func TestUpdateProfilePasswordIsHashed(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	account := registerVerified(t, svc, repo)

	if _, err := svc.UpdateProfile(context.Background(), account.ID, &domain.UpdateProfileRequest{
		Password: strPtr("newpass123"),
	}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), account.ID)
	if stored.PasswordHash == "newpass123" {
		t.Error("password stored unhashed")
	}
	if _, err := login(t, svc, testEmail, "newpass123"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}

func TestUpdateProfileDuplicateEmailConflict(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	account := registerVerified(t, svc, repo)

	if err := svc.Register(context.Background(), &domain.RegisterRequest{
		FirstName: "Other", Email: "other@example.com", Password: "otherpass1",
	}); err != nil {
		t.Fatalf("second register: %v", err)
	}

	_, err := svc.UpdateProfile(context.Background(), account.ID, &domain.UpdateProfileRequest{
		Email: strPtr("other@example.com"),
	})
	wantKind(t, err, domain.KindConflict)
}

func TestUpdateProfileUnknownAccount(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.UpdateProfile(context.Background(), 42, &domain.UpdateProfileRequest{FirstName: strPtr("X")})
	wantKind(t, err, domain.KindNotFound)
}
