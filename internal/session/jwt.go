package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
)

// Claims carries the account id next to the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

func generateToken(accountID string, secretKey []byte, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		AccountID: accountID,
	})
	return token.SignedString(secretKey)
}

func parseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("session expired: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("invalid session token: %w", common.ErrUnauthorized)
	}
	if !token.Valid || claims.AccountID == "" {
		return nil, fmt.Errorf("invalid session token: %w", common.ErrUnauthorized)
	}
	return claims, nil
}
