// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/sakif/tenderboard/internal/model"
)

// UserRepository owns the users table. It is the only component allowed to
// touch user rows — uniqueness of email and google_id is enforced here (by
// the store's constraints), not by callers.
type UserRepository interface {
	// Create inserts a new user and fills in ID and CreatedAt.
	// A duplicate email surfaces as apperror.ErrConflict even when the
	// caller's pre-check raced with a concurrent insert.
	Create(ctx context.Context, user *model.User) error

	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)

	// LinkGoogle back-fills a federated identity onto an existing local
	// account (same person, same email, different login path).
	LinkGoogle(ctx context.Context, id int64, googleID, avatarURL string) error

	// RedeemVerificationToken atomically marks the matching user verified
	// and clears the token. Tokens issued before notBefore no longer count.
	// Returns apperror.ErrNotFound when no row matches — already redeemed,
	// expired, or never issued.
	RedeemVerificationToken(ctx context.Context, token string, notBefore time.Time) (*model.User, error)
}

// TenderRepository owns the tenders table.
type TenderRepository interface {
	// Upsert inserts the tender, or — when the code already exists —
	// refreshes only the AI annotations, leaving everything captured at
	// first ingestion untouched. Atomic with respect to concurrent callers.
	// Returns the full resulting row.
	Upsert(ctx context.Context, tender *model.Tender) (*model.Tender, error)

	// List returns every tender, best AI score first, newest first among
	// equal scores.
	List(ctx context.Context) ([]model.Tender, error)
}
