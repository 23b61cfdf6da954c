package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/tenderboard/internal/apperror"
	"github.com/sakif/tenderboard/internal/model"
	"github.com/sakif/tenderboard/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, google_id, email, password, display_name, avatar_url,
	verification_token, verification_sent_at, is_verified, created_at`

// Create inserts a new user and fills in ID and CreatedAt on the passed
// struct (pointer receiver semantics — the caller's value is updated).
//
// THE REGISTRATION RACE:
// The service pre-checks the email before calling Create, but two concurrent
// registrations can both pass that check. The UNIQUE constraint on email is
// the real enforcement point; when it fires we translate it to ErrConflict
// so the second caller sees "email taken", not a 500.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (google_id, email, password, display_name, avatar_url,
		                    verification_token, verification_sent_at, is_verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullable(user.GoogleID),
		user.Email,
		nullable(user.PasswordHash),
		user.DisplayName,
		user.AvatarURL,
		nullable(user.VerificationToken),
		user.VerificationSentAt,
		user.IsVerified,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email is already registered")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by their surrogate ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`,
		fmt.Sprintf("%d", id), id)
}

// GetByEmail retrieves a user by email (exact match, case-sensitive as stored).
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		email, email)
}

// GetByGoogleID retrieves a user by their federated subject ID.
func (db *DB) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = ?`,
		googleID, googleID)
}

// getUser runs a single-row user query and scans it, translating
// sql.ErrNoRows into the domain's NotFound error.
func (db *DB) getUser(ctx context.Context, query, key string, arg any) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, query, arg)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}
	return u, nil
}

// LinkGoogle back-fills a Google identity onto an existing account.
// Called when a federated login arrives for an email that already registered
// locally — one real person, one row.
func (db *DB) LinkGoogle(ctx context.Context, id int64, googleID, avatarURL string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET google_id = ?, avatar_url = ? WHERE id = ?`,
		googleID, avatarURL, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// This Google identity is already linked to a different row.
			return apperror.Conflict("Google account is already linked to another user")
		}
		return fmt.Errorf("sqlite: linking google identity to user %d: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", fmt.Sprintf("%d", id))
	}

	return nil
}

// RedeemVerificationToken flips the matching user to verified and clears the
// token, in a single UPDATE.
//
// ATOMICITY:
// Find-and-clear must be one statement. With a SELECT-then-UPDATE, two
// concurrent redeems of the same token could both see the row and both
// "succeed" — here the second UPDATE matches zero rows and fails cleanly,
// which is exactly the idempotence the caller relies on.
//
// The notBefore cutoff implements the token TTL: a token issued before it is
// treated the same as a token that never existed.
func (db *DB) RedeemVerificationToken(ctx context.Context, token string, notBefore time.Time) (*model.User, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		`UPDATE users
		 SET is_verified = 1, verification_token = NULL, verification_sent_at = NULL
		 WHERE verification_token = ? AND verification_sent_at >= ?
		 RETURNING id`,
		token, notBefore,
	).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("verification token", token)
		}
		return nil, fmt.Errorf("sqlite: redeeming verification token: %w", err)
	}

	return db.GetByID(ctx, id)
}

// scanner is the common subset of *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads one user row, unwrapping the nullable columns back into
// the model's empty-string / nil conventions.
func scanUser(row scanner) (*model.User, error) {
	var (
		u            model.User
		googleID     sql.NullString
		passwordHash sql.NullString
		token        sql.NullString
		sentAt       sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&googleID,
		&u.Email,
		&passwordHash,
		&u.DisplayName,
		&u.AvatarURL,
		&token,
		&sentAt,
		&u.IsVerified,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.GoogleID = googleID.String
	u.PasswordHash = passwordHash.String
	u.VerificationToken = token.String
	if sentAt.Valid {
		t := sentAt.Time
		u.VerificationSentAt = &t
	}

	return &u, nil
}
