package token

import (
	"testing"
	"time"

	"xbit_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = []byte("secret")

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := GenerateAccessToken(model.Session{ID: "s-1", Wallet: "0xabc"}, key, time.Minute)
	require.NoError(t, err)

	claims, err := VerifyToken(tok, key)
	require.NoError(t, err)
	assert.Equal(t, "s-1", claims.ID)
	assert.Equal(t, "0xabc", claims.Wallet)
}

func TestVerifyTokenRejects(t *testing.T) {
	expired, err := GenerateAccessToken(model.Session{ID: "s-1", Wallet: "0xabc"}, key, -time.Minute)
	require.NoError(t, err)
	_, err = VerifyToken(expired, key)
	require.Error(t, err)

	tok, err := GenerateAccessToken(model.Session{ID: "s-1", Wallet: "0xabc"}, key, time.Minute)
	require.NoError(t, err)
	_, err = VerifyToken(tok, []byte("other"))
	require.Error(t, err)

	noWallet, err := GenerateAccessToken(model.Session{ID: "s-1"}, key, time.Minute)
	require.NoError(t, err)
	_, err = VerifyToken(noWallet, key)
	require.Error(t, err)
}
