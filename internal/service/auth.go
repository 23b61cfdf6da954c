// Package service holds the business logic, between HTTP handlers and the
// repositories.
//
// AuthService is the identity resolver: every way a credential can become a
// user row goes through here — Google callback, local login, registration,
// email verification. Handlers stay HTTP-only, repositories stay SQL-only.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/tenderboard/internal/apperror"
	"github.com/sakif/tenderboard/internal/auth"
	"github.com/sakif/tenderboard/internal/mail"
	"github.com/sakif/tenderboard/internal/model"
	"github.com/sakif/tenderboard/internal/repository"
)

// VerificationTokenTTL is how long an emailed verification link stays
// redeemable. Tokens lived forever in the first prototype; a bounded window
// caps the damage of a leaked mailbox without inconveniencing anyone who
// reads email within three days.
const VerificationTokenTTL = 72 * time.Hour

// loginFailedMessage is the single message for "no such account" and "wrong
// password". Distinguishing them would let anyone probe which emails have
// accounts here.
const loginFailedMessage = "invalid email or password"

// AuthService handles identity resolution and credential management.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	mailer    mail.Mailer
	baseURL   string // public origin for verification links, e.g. "https://tenders.example.com"
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	mailer mail.Mailer,
	baseURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		mailer:    mailer,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// ResolveGoogle maps a Google profile to a user row. Exactly one of three
// things happens:
//
//  1. A row with this google_id exists → returned unchanged.
//  2. A row with this email exists (local registration) → the Google
//     identity and avatar are linked onto it. One real person, one row —
//     without linking, every local registrant who later clicks "Sign in
//     with Google" would fork into a duplicate account.
//  3. Nothing matches → a new user is created, verified from birth, since
//     Google has already vouched for the email.
func (s *AuthService) ResolveGoogle(ctx context.Context, gUser *auth.GoogleUser) (*model.User, error) {
	if gUser == nil {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	user, err := s.users.GetByGoogleID(ctx, gUser.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up google identity: %w", err)
	}

	user, err = s.users.GetByEmail(ctx, gUser.Email)
	if err == nil {
		// Existing local account — link the federated identity onto it.
		if err := s.users.LinkGoogle(ctx, user.ID, gUser.ID, gUser.AvatarURL); err != nil {
			return nil, fmt.Errorf("service/auth: linking google identity: %w", err)
		}
		user.GoogleID = gUser.ID
		user.AvatarURL = gUser.AvatarURL

		s.logger.Info("linked Google identity to existing account",
			slog.Int64("userID", user.ID),
		)
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}

	user = &model.User{
		GoogleID:    gUser.ID,
		Email:       gUser.Email,
		DisplayName: gUser.Name,
		AvatarURL:   gUser.AvatarURL,
		IsVerified:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating federated user: %w", err)
	}

	s.logger.Info("created user via Google login", slog.Int64("userID", user.ID))

	return user, nil
}

// Login authenticates a local email/password pair and returns the user.
// It issues nothing — establishing the session is the caller's job.
//
// Failure order matters: the account-shape checks (federated-only,
// unverified) come before the bcrypt comparison, and "no such email" shares
// its message with "wrong password" (see loginFailedMessage).
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(loginFailedMessage)
		}
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}

	if !user.HasPassword() {
		return nil, apperror.Unauthorized("this account uses Google sign-in")
	}
	if !user.IsVerified {
		return nil, apperror.Unauthorized("please verify your email address first")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized(loginFailedMessage)
	}

	return user, nil
}

// RegisterResult reports the outcome of a registration.
//
// EmailSent is false when the account was created but the verification mail
// could not be delivered — a soft failure the handler surfaces to the caller
// instead of pretending everything went out.
type RegisterResult struct {
	User      *model.User
	EmailSent bool
}

// Register creates an unverified local account and emails a verification
// link.
//
// The email pre-check gives a clean error in the common case; the UNIQUE
// constraint in the repository is what actually closes the race when two
// registrations for the same address interleave — both paths surface as
// ErrConflict.
//
// The plaintext password exists only on this call's stack: it is hashed
// immediately and never stored or logged.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*RegisterResult, error) {
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperror.Conflict("email is already registered")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is too long")
	}

	token, err := auth.NewVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		Email:              email,
		PasswordHash:       hash,
		DisplayName:        name,
		VerificationToken:  token,
		VerificationSentAt: &now,
		IsVerified:         false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The repository maps the constraint violation to ErrConflict, so a
		// concurrent duplicate that slipped past the pre-check still comes
		// out as "email taken", not as a 500.
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("registered local account", slog.Int64("userID", user.ID))

	result := &RegisterResult{User: user, EmailSent: true}

	verifyURL := fmt.Sprintf("%s/auth/verify/%s", s.baseURL, token)
	if err := s.mailer.SendVerification(ctx, email, name, verifyURL); err != nil {
		// Soft failure: the account stays, unverified. Deliberately NOT
		// marking it verified — that would turn a mail outage into an
		// email-ownership bypass.
		s.logger.Warn("verification mail failed",
			slog.Int64("userID", user.ID),
			slog.String("error", err.Error()),
		)
		result.EmailSent = false
	}

	return result, nil
}

// Verify redeems a verification token: unverified(token) → verified, once.
//
// The repository does the find-and-clear atomically, so the second redeem of
// the same token — or a redeem racing another — fails with the same
// "invalid token" as a token that never existed. Expired tokens (older than
// VerificationTokenTTL) are equally invalid.
func (s *AuthService) Verify(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.NotFound("verification token", "")
	}

	notBefore := time.Now().UTC().Add(-VerificationTokenTTL)
	user, err := s.users.RedeemVerificationToken(ctx, token, notBefore)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: redeeming token: %w", err)
	}

	s.logger.Info("email verified", slog.Int64("userID", user.ID))

	return user, nil
}
