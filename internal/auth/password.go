package auth

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"

	"casino-maintenance-backend/internal/apperr"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// BcryptHasher is a Hasher backed by bcrypt. The salt is generated per call.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. A mismatch is (false, nil);
// a hash that is not bcrypt at all is returned as an error.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("stored password hash is unusable: %w", err)
	}
}

const (
	MsgPasswordTooShort  = "Password must be at least 8 characters long"
	MsgPasswordNoUpper   = "Password must contain at least one uppercase letter"
	MsgPasswordNoLower   = "Password must contain at least one lowercase letter"
	MsgPasswordNoDigit   = "Password must contain at least one digit"
	MsgPasswordTooLong   = "Password must be at most 72 bytes long"
	minPasswordRuneCount = 8
	maxPasswordBytes     = 72 // bcrypt input limit
)

var (
	hasUpper = regexp.MustCompile(`\p{Lu}`)
	hasLower = regexp.MustCompile(`\p{Ll}`)
	hasDigit = regexp.MustCompile(`\p{Nd}`)
)

// CheckPasswordPolicy returns a ValidationFailed error naming the first
// rule password does not meet.
func CheckPasswordPolicy(password string) error {
	err := validation.Validate(password,
		validation.Required.Error(MsgPasswordTooShort),
		validation.RuneLength(minPasswordRuneCount, 0).Error(MsgPasswordTooShort),
		validation.Length(0, maxPasswordBytes).Error(MsgPasswordTooLong),
		validation.Match(hasUpper).Error(MsgPasswordNoUpper),
		validation.Match(hasLower).Error(MsgPasswordNoLower),
		validation.Match(hasDigit).Error(MsgPasswordNoDigit),
	)
	if err != nil {
		return apperr.ValidationFailed(err.Error())
	}
	return nil
}
