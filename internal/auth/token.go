package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// verificationTokenBytes is the entropy of an email verification token.
// 20 random bytes = 160 bits, hex-encoded to 40 characters. Comfortably past
// the point where guessing a live token is feasible, and short enough to
// survive email clients that mangle long URLs.
const verificationTokenBytes = 20

// NewVerificationToken returns a cryptographically random opaque token for
// the email verification flow.
//
// crypto/rand (NOT math/rand) — these tokens are bearer credentials: whoever
// presents one flips the account to verified. math/rand output is
// predictable from its seed and must never be used for anything a caller
// could forge.
func NewVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
