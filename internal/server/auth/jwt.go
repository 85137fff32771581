// Package auth signs editor session descriptors and verifies the tokens
// the document server attaches to its callbacks. Both use HS256 with the
// secret shared with the document server.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/common"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the whole editor descriptor plus iat/exp, which is
// what the document server expects to find in the session token.
type SessionClaims struct {
	models.SessionConfig
	jwt.RegisteredClaims
}

// SignSession signs cfg, valid from now for validity.
func SignSession(cfg models.SessionConfig, secretKey []byte, now time.Time, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		SessionConfig: cfg,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func keyFunc(secretKey []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}
}

// ParseSession verifies a session token and returns its claims.
func ParseSession(tokenString string, secretKey []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secretKey),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// stripBearer drops an "Authorization: Bearer" scheme in any letter case.
func stripBearer(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "Bearer") {
		return ""
	}
	if scheme, rest, ok := strings.Cut(s, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return s
}

// VerifyCallbackToken checks a callback token and returns its claims. The
// document server puts the callback body in the claims, either at the top
// level or under "payload" when the token travels in a header.
func VerifyCallbackToken(tokenString string, secretKey []byte) (jwt.MapClaims, error) {
	tokenString = stripBearer(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrInvalidToken)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secretKey),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if payload, ok := claims["payload"].(map[string]interface{}); ok {
		return jwt.MapClaims(payload), nil
	}

	return claims, nil
}
