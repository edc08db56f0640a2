package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// Session Сессия кошелька, восстановленная из токена
type Session struct {
	ID     string
	Wallet string
}

type WalletClaims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}
