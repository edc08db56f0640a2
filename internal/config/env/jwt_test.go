package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	t.Setenv(accessTokenKeyEnvName, "secret")
	t.Setenv(accessTokenDurationEnvName, "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), cfg.AccessTokenSecretKey())
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenDuration())

	t.Setenv(accessTokenDurationEnvName, "15m")
	cfg, err = NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenDuration())

	t.Setenv(accessTokenDurationEnvName, "soon")
	_, err = NewJWTConfig()
	require.Error(t, err)

	t.Setenv(accessTokenKeyEnvName, "")
	_, err = NewJWTConfig()
	require.Error(t, err)
}

func TestNewPriceConfigMaxAge(t *testing.T) {
	t.Setenv(priceMaxAgeEnvName, "")
	cfg, err := NewPriceConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.MaxAge())

	t.Setenv(priceMaxAgeEnvName, "30s")
	cfg, err = NewPriceConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.MaxAge())
}
