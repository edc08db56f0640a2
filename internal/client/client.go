package client

import (
	"context"
	"time"

	"xbit_backend/internal/model"

	"github.com/shopspring/decimal"
)

// LedgerClient Клиент контрактов одной сети
type LedgerClient interface {
	ChainID() int64
	Signer() string // адрес, от имени которого отправляются транзакции
	SubmitPlay(ctx context.Context, req model.PlayRequest) (model.PendingTx, error)
	AwaitReceipt(ctx context.Context, tx model.PendingTx) (*model.Receipt, error)
	GetStatusByID(ctx context.Context, playID string) (*model.PlayStatus, error)
	CurrentBlockHeight(ctx context.Context) (uint64, error)
	BlockTime(ctx context.Context, height uint64) (time.Time, error)
	Allowance(ctx context.Context, asset, owner, spender string) (decimal.Decimal, error)
	Approve(ctx context.Context, asset, spender string, amount decimal.Decimal, unlimited bool) (model.PendingTx, error)
	ListPlayIDs(ctx context.Context, owner string) ([]string, error)
	PoolSize(ctx context.Context, asset string) (decimal.Decimal, error)
}

// PriceSource Источник котировок в USD
type PriceSource interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Роли контрактов, на которые выдается allowance
const (
	SpenderPlay      = "play"
	SpenderCharity   = "charity"
	SpenderSecondary = "secondary"
)

// AssetSecondary Символ токена EXP в каталоге сети
const AssetSecondary = "exp"
