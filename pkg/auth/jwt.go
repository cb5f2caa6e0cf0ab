package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A session token must never be accepted where a
// verification token is expected and vice versa.
const (
	PurposeSession     = "session"
	PurposeEmailVerify = "email_verify"
)

type Claims struct {
	Sub     int64  `json:"sub,omitempty"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func NewSessionToken(accountID int64, secret string, ttl time.Duration) (string, error) {
	return newToken(Claims{Sub: accountID, Purpose: PurposeSession}, secret, ttl)
}

func NewVerificationToken(email, secret string, ttl time.Duration) (string, error) {
	return newToken(Claims{Email: email, Purpose: PurposeEmailVerify}, secret, ttl)
}

func newToken(claims Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Audience:  []string{"jobtrackr-api"},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseSessionToken(tokenString, secret string) (*Claims, error) {
	return parse(tokenString, secret, PurposeSession)
}

func ParseVerificationToken(tokenString, secret string) (*Claims, error) {
	return parse(tokenString, secret, PurposeEmailVerify)
}

func parse(tokenString, secret, purpose string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Purpose != purpose {
		return nil, errors.New("invalid token purpose")
	}
	return claims, nil
}
