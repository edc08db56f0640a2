package token

import (
	"errors"
	"fmt"
	"time"

	"xbit_backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

func GenerateAccessToken(session model.Session, secretKey []byte, ttl time.Duration) (string, error) {
	claims := model.WalletClaims{
		Wallet: session.Wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secretKey)
}

func VerifyToken(tokenStr string, secretKey []byte) (*model.WalletClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &model.WalletClaims{}, func(token *jwt.Token) (interface{}, error) {
		_, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok {
			return nil, errors.New("unexpected token signing method")
		}

		return secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*model.WalletClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if claims.Wallet == "" || claims.ID == "" {
		return nil, errors.New("token without wallet or session")
	}

	return claims, nil
}
