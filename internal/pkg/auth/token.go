package auth

import (
	"golang.org/x/crypto/bcrypt"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
)

// TokenVerifier checks service tokens presented to operator endpoints.
type TokenVerifier interface {
	Enabled() bool
	Verify(token string) error
}

// BcryptVerifier compares tokens against a bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier creates BcryptVerifier. An empty hash disables verification entirely.
func NewBcryptVerifier(hash string) *BcryptVerifier {
	return &BcryptVerifier{hash: []byte(hash)}
}

// Enabled reports whether a token hash is configured.
func (v *BcryptVerifier) Enabled() bool {
	return len(v.hash) > 0
}

// Verify returns ErrInvalidToken unless token matches the configured hash.
func (v *BcryptVerifier) Verify(token string) error {
	if !v.Enabled() || token == "" {
		return domainErrors.ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return domainErrors.ErrInvalidToken
	}
	return nil
}

// HashToken produces the value expected in OPS_TOKEN_HASH for token.
func HashToken(token string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	encoded, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
