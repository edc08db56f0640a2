package table

import (
	"context"
	"fmt"
	"testing"
	"time"

	"xbit_backend/internal/client"
	"xbit_backend/internal/client/fake"
	"xbit_backend/internal/model"
	"xbit_backend/internal/repository/table_repo"
	"xbit_backend/internal/service"
	"xbit_backend/internal/service/price"
	"xbit_backend/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainID = int64(56)

type stubSource map[string]decimal.Decimal

func (s stubSource) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	v, ok := s[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no quote for %s", symbol)
	}
	return v, nil
}

func newServiceWith(t *testing.T, prices service.PriceService, maxAge time.Duration) (service.TableService, *fake.Ledger) {
	t.Helper()

	tables, err := table_repo.NewTableRepository([]model.ProbabilityTable{
		{
			ID:          "input",
			OutputAsset: "weth",
			Tiers:       []model.RewardTier{{Basis: model.BasisInput, Expectation: 100_000, Reward: 2_000_000}},
		},
		{
			ID:          "pool",
			OutputAsset: "wbnb",
			Tiers:       []model.RewardTier{{Basis: model.BasisPool, Expectation: 1_000, Reward: 100_000}},
		},
	})
	require.NoError(t, err)

	ledger := fake.NewLedger(chainID)
	log := logger.NewDiscard().Component("table")
	return NewTableService(tables, prices, map[int64]client.LedgerClient{chainID: ledger}, maxAge, log), ledger
}

// newService Без источника котировок сервис цен отдает значения по умолчанию, возраст не проверяется
func newService(t *testing.T, prices map[string]decimal.Decimal) (service.TableService, *fake.Ledger) {
	t.Helper()
	return newServiceWith(t, price.NewPriceService(nil, prices, nil, 0, logger.NewDiscard().Component("price")), 0)
}

func TestStatsInputTable(t *testing.T) {
	svc, _ := newService(t, map[string]decimal.Decimal{"weth": decimal.NewFromInt(2000)})

	stats, err := svc.Stats(context.Background(), chainID, "input")
	require.NoError(t, err)

	require.NotNil(t, stats.WinRate)
	require.NotNil(t, stats.Jackpot)
	assert.InDelta(t, 0.05, *stats.WinRate, 1e-12)
	assert.InDelta(t, 2.0, *stats.Jackpot, 1e-12)
	assert.InDelta(t, 0.1, stats.PayoutRatio, 1e-12)
}

func TestStatsPoolTableDeferredWithoutPool(t *testing.T) {
	svc, _ := newService(t, map[string]decimal.Decimal{"wbnb": decimal.NewFromInt(2)})

	stats, err := svc.Stats(context.Background(), chainID, "pool")
	require.NoError(t, err)
	assert.Nil(t, stats.WinRate)
	assert.Nil(t, stats.Jackpot)
	assert.InDelta(t, 0.001, stats.PayoutRatio, 1e-12)
}

func TestStatsPoolTable(t *testing.T) {
	svc, ledger := newService(t, map[string]decimal.Decimal{"wbnb": decimal.NewFromInt(2)})
	ledger.SetPool("wbnb", decimal.NewFromInt(10))

	stats, err := svc.Stats(context.Background(), chainID, "pool")
	require.NoError(t, err)
	require.NotNil(t, stats.WinRate)
	require.NotNil(t, stats.Jackpot)
	assert.InDelta(t, 0.0005, *stats.WinRate, 1e-12)
	assert.InDelta(t, 1.0, *stats.Jackpot, 1e-12)
}

func TestStatsStalePrice(t *testing.T) {
	log := logger.NewDiscard().Component("price")

	// Цена из конфигурации ни разу не обновлялась
	seeded := price.NewPriceService(nil, map[string]decimal.Decimal{"wbnb": decimal.NewFromInt(2)}, nil, 0, log)
	svc, ledger := newServiceWith(t, seeded, time.Minute)
	ledger.SetPool("wbnb", decimal.NewFromInt(10))

	stats, err := svc.Stats(context.Background(), chainID, "pool")
	require.NoError(t, err)
	assert.Nil(t, stats.WinRate)
	assert.InDelta(t, 0.001, stats.PayoutRatio, 1e-12)

	// Таблице без pool-уровней цена не нужна
	stats, err = svc.Stats(context.Background(), chainID, "input")
	require.NoError(t, err)
	require.NotNil(t, stats.WinRate)
	assert.InDelta(t, 0.05, *stats.WinRate, 1e-12)

	fresh := price.NewPriceService(stubSource{"BNB": decimal.NewFromInt(2)}, nil, map[string]string{"wbnb": "BNB"}, time.Minute, log)
	require.NoError(t, fresh.Refresh(context.Background()))
	svc, ledger = newServiceWith(t, fresh, time.Minute)
	ledger.SetPool("wbnb", decimal.NewFromInt(10))

	stats, err = svc.Stats(context.Background(), chainID, "pool")
	require.NoError(t, err)
	require.NotNil(t, stats.WinRate)
	assert.InDelta(t, 0.0005, *stats.WinRate, 1e-12)
}

func TestStatsErrors(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.Stats(context.Background(), chainID, "missing")
	require.ErrorIs(t, err, model.ErrTableNotFound)

	_, err = svc.Stats(context.Background(), 1, "input")
	require.ErrorIs(t, err, model.ErrUnknownNetwork)

	tables, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "input", tables[0].ID)
}
