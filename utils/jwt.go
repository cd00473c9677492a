package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "TableReservation"

var (
	jwtMu     sync.RWMutex
	jwtSecret = []byte("dev-secret-change-me")
	tokenTTL  = 24 * time.Hour

	revokedTokens = make(map[string]time.Time)
	revokedMutex  sync.Mutex
)

// ConfigureJWT sets the signing secret and token lifetime.
func ConfigureJWT(secret string, ttl time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if ttl > 0 {
		tokenTTL = ttl
	}
}

type CustomClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// GenerateToken issues a token bound to one dashboard session.
func GenerateToken(userID uint, username, role, sessionID string) (string, time.Time, error) {
	jwtMu.RLock()
	secret, ttl := jwtSecret, tokenTTL
	jwtMu.RUnlock()

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &CustomClaims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	if IsTokenRevoked(tokenString) {
		return nil, errors.New("token has been revoked")
	}

	jwtMu.RLock()
	secret := jwtSecret
	jwtMu.RUnlock()

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// RevokeToken blocks a token until it would have expired anyway.
func RevokeToken(tokenString string, until time.Time) {
	revokedMutex.Lock()
	defer revokedMutex.Unlock()
	revokedTokens[tokenString] = until
}

func IsTokenRevoked(tokenString string) bool {
	revokedMutex.Lock()
	defer revokedMutex.Unlock()

	until, exists := revokedTokens[tokenString]
	if !exists {
		return false
	}
	if time.Now().Before(until) {
		return true
	}
	// sudah kadaluarsa, hapus dari daftar
	delete(revokedTokens, tokenString)
	return false
}
