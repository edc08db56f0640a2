package env

import (
	"time"

	"xbit_backend/internal/config"

	"github.com/shopspring/decimal"
)

const (
	pollIntervalEnvName       = "PLAY_POLL_INTERVAL"
	pollTimeoutEnvName        = "PLAY_POLL_TIMEOUT"
	pollAttemptsEnvName       = "PLAY_POLL_ATTEMPTS"
	pollRetryDelayEnvName     = "PLAY_POLL_RETRY_DELAY"
	guardDelayEnvName         = "PLAY_GUARD_DELAY"
	displayCapacityEnvName    = "PLAY_DISPLAY_CAPACITY"
	fadeAfterEnvName          = "PLAY_FADE_AFTER"
	resumeExpiryEnvName       = "PLAY_RESUME_EXPIRY"
	approveCeilingEnvName     = "PLAY_APPROVE_CEILING"
	secondaryThresholdEnvName = "PLAY_SECONDARY_THRESHOLD"
	defaultChainIDEnvName     = "PLAY_DEFAULT_CHAIN_ID"
)

type playConfig struct {
	pollInterval       time.Duration
	pollTimeout        time.Duration
	pollAttempts       int
	pollRetryDelay     time.Duration
	guardDelay         time.Duration
	displayCapacity    int
	fadeAfter          time.Duration
	resumeExpiry       time.Duration
	approveCeiling     decimal.Decimal
	secondaryThreshold decimal.Decimal
	defaultChainID     int64
}

// NewPlayConfig Все значения необязательные
func NewPlayConfig() (config.PlayConfig, error) {
	var (
		cfg playConfig
		err error
	)

	if cfg.pollInterval, err = durationOr(pollIntervalEnvName, 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.pollTimeout, err = durationOr(pollTimeoutEnvName, 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.pollAttempts, err = intOr(pollAttemptsEnvName, 3); err != nil {
		return nil, err
	}
	if cfg.pollRetryDelay, err = durationOr(pollRetryDelayEnvName, 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.guardDelay, err = durationOr(guardDelayEnvName, 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.displayCapacity, err = intOr(displayCapacityEnvName, 3); err != nil {
		return nil, err
	}
	if cfg.fadeAfter, err = durationOr(fadeAfterEnvName, 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.resumeExpiry, err = durationOr(resumeExpiryEnvName, 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.approveCeiling, err = decimalOr(approveCeilingEnvName, decimal.NewFromInt(1000)); err != nil {
		return nil, err
	}
	// 2^128 - 1 в единицах токена с 18 знаками, как порог для повторного одобрения EXP
	if cfg.secondaryThreshold, err = decimalOr(secondaryThresholdEnvName, decimal.RequireFromString("340282366920938463463.374607431768211455")); err != nil {
		return nil, err
	}
	if cfg.defaultChainID, err = int64Or(defaultChainIDEnvName, 0); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *playConfig) PollInterval() time.Duration {
	return cfg.pollInterval
}

func (cfg *playConfig) PollTimeout() time.Duration {
	return cfg.pollTimeout
}

func (cfg *playConfig) PollAttempts() int {
	return cfg.pollAttempts
}

func (cfg *playConfig) PollRetryDelay() time.Duration {
	return cfg.pollRetryDelay
}

func (cfg *playConfig) GuardDelay() time.Duration {
	return cfg.guardDelay
}

func (cfg *playConfig) DisplayCapacity() int {
	return cfg.displayCapacity
}

func (cfg *playConfig) FadeAfter() time.Duration {
	return cfg.fadeAfter
}

func (cfg *playConfig) ResumeExpiry() time.Duration {
	return cfg.resumeExpiry
}

func (cfg *playConfig) ApproveCeiling() decimal.Decimal {
	return cfg.approveCeiling
}

func (cfg *playConfig) SecondaryThreshold() decimal.Decimal {
	return cfg.secondaryThreshold
}

func (cfg *playConfig) DefaultChainID() int64 {
	return cfg.defaultChainID
}
