// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an account on the tender dashboard.
//
// Accounts come in two flavours and a single row can be both:
//   - Federated: GoogleID is set. Google vouched for the email, so the
//     account was created with IsVerified = true and usually no password.
//   - Local: PasswordHash is set. The account starts unverified and must
//     redeem the emailed verification token before it can log in.
//
// When someone who registered locally later signs in with Google using the
// same email, the Google identity is linked onto the existing row instead of
// creating a duplicate (see AuthService.ResolveGoogle).
//
// WHY string FIELDS INSTEAD OF *string?
// GoogleID, PasswordHash and VerificationToken are nullable columns, but in
// Go an empty string is a perfectly good "absent" marker for all three — none
// of them can legitimately be "". The repository translates "" ↔ NULL so the
// UNIQUE index on google_id never sees two empty strings.
type User struct {
	ID                 int64      `json:"id"`
	GoogleID           string     `json:"googleId,omitempty"` // Google's subject ID, "" for local-only accounts
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"` // bcrypt hash — never serialized
	DisplayName        string     `json:"displayName"`
	AvatarURL          string     `json:"avatarUrl"`
	VerificationToken  string     `json:"-"` // one-time token, cleared on redeem
	VerificationSentAt *time.Time `json:"-"` // when the token was issued — drives the TTL
	IsVerified         bool       `json:"isVerified"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// HasPassword reports whether local password login is possible at all for
// this account. Federated-only accounts return false and must use Google.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
