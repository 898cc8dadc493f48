package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongSubject = errors.New("token subject mismatch")
)

// ReceiptLength is the number of characters in a vote receipt code.
const ReceiptLength = 16

// receiptAlphabet has 32 characters (256 % 32 == 0, so byte-mod sampling is
// uniform). I, O, 0 and 1 are excluded to keep codes unambiguous when read
// back by humans.
const receiptAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReceiptCode creates a cryptographically random receipt code.
// Codes are uppercase; verification is case-insensitive via NormalizeReceipt.
func GenerateReceiptCode() (string, error) {
	b := make([]byte, ReceiptLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate receipt code: %w", err)
	}
	for i := range b {
		b[i] = receiptAlphabet[int(b[i])%len(receiptAlphabet)]
	}
	return string(b), nil
}

// NormalizeReceipt maps user input to the stored (uppercase) form so that
// lookups are case-insensitive but still exact-match.
func NormalizeReceipt(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HashSource creates a one-way hash of an originating source (IP address)
// for privacy. Includes salt to prevent rainbow table attacks.
func HashSource(source, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(source))
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}

// Token subjects distinguish admin sessions from voter credentials.
const (
	SubjectAdmin = "admin"
	SubjectVoter = "voter"
)

type Claims struct {
	Subject    string `json:"sub_type"`
	AdminID    string `json:"aid,omitempty"`
	Email      string `json:"email,omitempty"`
	ElectionID string `json:"eid,omitempty"`
	VoterID    string `json:"vid,omitempty"`
	jwt.RegisteredClaims
}

// SignAdminToken issues a session token for an administrator.
func SignAdminToken(adminID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject: SubjectAdmin,
		AdminID: adminID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// SignVoterToken issues a voter credential bound to a single election.
// Returned by registration; required for applying and casting votes.
func SignVoterToken(electionID, voterID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject:    SubjectVoter,
		ElectionID: electionID,
		VoterID:    voterID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a token and returns its claims.
func ParseToken(token, secret string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, ErrInvalidToken
}

// HashPassword hashes an administrator password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against a stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
