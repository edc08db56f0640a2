package table

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xbit_backend/internal/client"
	"xbit_backend/internal/model"
	"xbit_backend/internal/repository"
	"xbit_backend/internal/service"
	"xbit_backend/internal/service/reward"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type serv struct {
	tables  repository.TableRepository
	prices  service.PriceService
	ledgers map[int64]client.LedgerClient
	maxAge  time.Duration // 0 - возраст цены не проверяется
	log     *logrus.Entry
}

func NewTableService(
	tables repository.TableRepository,
	prices service.PriceService,
	ledgers map[int64]client.LedgerClient,
	maxAge time.Duration,
	log *logrus.Entry,
) service.TableService {
	return &serv{
		tables:  tables,
		prices:  prices,
		ledgers: ledgers,
		maxAge:  maxAge,
		log:     log,
	}
}

func (s *serv) List(ctx context.Context) ([]model.ProbabilityTable, error) {
	return s.tables.List(ctx)
}

// Stats Агрегаты для отображения. Без свежей цены или пула зависящие от них WinRate и Jackpot остаются nil.
func (s *serv) Stats(ctx context.Context, chainID int64, tableID string) (*model.TableStats, error) {
	t, err := s.tables.Get(ctx, tableID)
	if err != nil {
		return nil, err
	}
	ledger, ok := s.ledgers[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownNetwork, chainID)
	}

	ratio, _ := reward.PayoutRatio(t).Float64()
	stats := &model.TableStats{
		TableID:     t.ID,
		PayoutRatio: ratio,
	}

	price, _ := s.prices.Price(t.OutputAsset)
	if s.maxAge > 0 && s.prices.Stale(t.OutputAsset, s.maxAge) {
		price = decimal.Zero
	}
	pool, err := ledger.PoolSize(ctx, t.OutputAsset)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"chain_id": chainID,
			"asset":    t.OutputAsset,
		}).Warn("failed to read pool size")
		pool = decimal.Zero
	}

	rate, err := reward.WinRate(t, pool, price)
	switch {
	case err == nil:
		stats.WinRate = toFloat(rate)
	case !errors.Is(err, model.ErrStatsUnavailable):
		return nil, err
	}

	jackpot, err := reward.Jackpot(t, pool, price)
	switch {
	case err == nil:
		stats.Jackpot = toFloat(jackpot)
	case !errors.Is(err, model.ErrStatsUnavailable):
		return nil, err
	}

	return stats, nil
}

func toFloat(d decimal.Decimal) *float64 {
	f, _ := d.Float64()
	return &f
}
