package subscription

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenExpiry is how long an unsubscribe link stays valid
	DefaultTokenExpiry = 30 * 24 * time.Hour

	tokenIssuer  = "clearstock"
	tokenPurpose = "unsubscribe"
)

var (
	// ErrTokensDisabled is returned when no token secret is configured
	ErrTokensDisabled = errors.New("unsubscribe tokens are not configured")

	// ErrInvalidToken is returned for malformed, expired or foreign tokens
	ErrInvalidToken = errors.New("invalid unsubscribe token")
)

func signToken(email string, secret []byte, now time.Time, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": email,
		"iss": tokenIssuer,
		"pur": tokenPurpose,
		"iat": now.Unix(),
		"exp": now.Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parseToken returns the email of a valid unsubscribe token
func parseToken(tokenString string, secret []byte, now time.Time) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if purpose, _ := claims["pur"].(string); purpose != tokenPurpose {
		return "", ErrInvalidToken
	}
	email, err := claims.GetSubject()
	if err != nil || email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}
