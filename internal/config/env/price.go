package env

import (
	"time"

	"xbit_backend/internal/config"
)

const (
	priceSourceURLEnvName       = "PRICE_SOURCE_URL"
	priceRefreshIntervalEnvName = "PRICE_REFRESH_INTERVAL"
	priceMaxAgeEnvName          = "PRICE_MAX_AGE"
)

type priceConfig struct {
	sourceURL       string
	refreshInterval time.Duration
	maxAge          time.Duration
}

func NewPriceConfig() (config.PriceConfig, error) {
	interval, err := durationOr(priceRefreshIntervalEnvName, time.Minute)
	if err != nil {
		return nil, err
	}
	maxAge, err := durationOr(priceMaxAgeEnvName, 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return &priceConfig{
		sourceURL:       stringOr(priceSourceURLEnvName, "https://min-api.cryptocompare.com"),
		refreshInterval: interval,
		maxAge:          maxAge,
	}, nil
}

func (cfg *priceConfig) SourceURL() string {
	return cfg.sourceURL
}

func (cfg *priceConfig) RefreshInterval() time.Duration {
	return cfg.refreshInterval
}

func (cfg *priceConfig) MaxAge() time.Duration {
	return cfg.maxAge
}
