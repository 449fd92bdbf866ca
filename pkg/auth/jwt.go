package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTClaims are the token claims carried by an access token. Identity comes
// from an external provider; this service only validates what it issued or
// was configured to trust.
type JWTClaims struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// JWTService signs and validates access tokens with a shared HMAC secret.
type JWTService struct {
	secretKey      []byte
	expirationMins int
}

// NewJWTService creates a new JWT service.
func NewJWTService(secretKey string, expirationMins int) *JWTService {
	return &JWTService{
		secretKey:      []byte(secretKey),
		expirationMins: expirationMins,
	}
}

// GenerateToken issues a signed access token for the user.
func (s *JWTService) GenerateToken(userID uint, email string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expirationMins) * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ParseToken validates the token signature and expiry and returns its claims.
func (s *JWTService) ParseToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token is missing user id")
	}
	return claims, nil
}
