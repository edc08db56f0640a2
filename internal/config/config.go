package config

import (
	"time"

	"xbit_backend/internal/model"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		return err
	}
	return nil
}

type HTTPConfig interface {
	Address() string
}

type PGConfig interface {
	DSN() string
}

type JWTConfig interface {
	AccessTokenSecretKey() []byte
	AccessTokenDuration() time.Duration
}

type LogConfig interface {
	Level() string
	Format() string
}

type LedgerConfig interface {
	PrivateKey() string
	ReceiptPollInterval() time.Duration
	StatusQueriesPerSecond() float64
	StatusBurst() int
}

type PlayConfig interface {
	PollInterval() time.Duration
	PollTimeout() time.Duration
	PollAttempts() int
	PollRetryDelay() time.Duration
	GuardDelay() time.Duration // 0 - без задержки
	DisplayCapacity() int
	FadeAfter() time.Duration
	ResumeExpiry() time.Duration
	ApproveCeiling() decimal.Decimal
	SecondaryThreshold() decimal.Decimal
	DefaultChainID() int64
}

type PriceConfig interface {
	SourceURL() string
	RefreshInterval() time.Duration
	MaxAge() time.Duration // старше - цена не используется для статистики
}

// CatalogConfig Сети, токены, таблицы и цены по умолчанию из config.yaml
type CatalogConfig interface {
	Networks() []Network
	Tables() []model.ProbabilityTable
	DefaultPrices() map[string]decimal.Decimal
	QuoteSymbols() map[string]string
}

type Network struct {
	ChainID   int64            `yaml:"chain_id"`
	Name      string           `yaml:"name"`
	RPCURL    string           `yaml:"rpc_url"`
	Contracts Contracts        `yaml:"contracts"`
	Tokens    map[string]Token `yaml:"tokens"`
}

type Contracts struct {
	Play      string `yaml:"play"`      // основной контракт игр
	Charity   string `yaml:"charity"`   // игры с пожертвованием
	Secondary string `yaml:"secondary"` // получатель allowance на EXP
}

type Token struct {
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
}
