package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrMissingSecret is returned when no signing key is configured.
var ErrMissingSecret = errors.New("jwt signing secret is required")

// Claims are the JWT claims carried by a RuangPena token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.StandardClaims
}

// TokenManager issues and verifies HS256 tokens bound to a user id.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager. A non-positive ttl uses DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Generate signs a token for userID that expires after the manager's TTL.
func (m *TokenManager) Generate(userID string) (string, error) {
	return m.generateAt(userID, time.Now())
}

func (m *TokenManager) generateAt(userID string, issuedAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: issuedAt.Add(m.ttl).Unix(),
		},
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// Verify returns the user id embedded in tokenString. ok is false for a bad
// signature, an unexpected algorithm, a malformed or expired token.
func (m *TokenManager) Verify(tokenString string) (userID string, ok bool) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}
