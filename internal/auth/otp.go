package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeMismatch = errors.New("verification code does not match")
)

// CodeManager issues and validates the numeric one-time codes used to confirm
// email addresses. Codes are bcrypt-hashed before persistence; only the hash
// is ever stored. A user has at most one live code: Issue replaces any prior
// one, and a successful Validate deletes the record (single use).
type CodeManager struct {
	repo       CodeRepository
	codeLength int
	bcryptCost int
}

func NewCodeManager(repo CodeRepository, codeLength, bcryptCost int) *CodeManager {
	return &CodeManager{
		repo:       repo,
		codeLength: codeLength,
		bcryptCost: bcryptCost,
	}
}

// Issue generates a fresh code for the user, invalidating any outstanding
// one, and returns the plaintext so the caller can deliver it out-of-band.
func (m *CodeManager) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := generateNumericCode(m.codeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), m.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash verification code: %w", err)
	}

	if err := m.repo.Replace(ctx, userID, string(hash)); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	return code, nil
}

// Validate compares the candidate against the stored hash. A match consumes
// the code; a mismatch leaves it intact so the user can retry until the TTL
// runs out.
func (m *CodeManager) Validate(ctx context.Context, userID uuid.UUID, candidate string) error {
	hash, err := m.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ErrCodeNotFound
		}
		return fmt.Errorf("failed to load verification code: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrCodeMismatch
		}
		return fmt.Errorf("failed to compare verification code: %w", err)
	}

	if err := m.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}

	return nil
}

// generateNumericCode returns n digits from crypto/rand
func generateNumericCode(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
