package price

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"xbit_backend/internal/client"
	"xbit_backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Одновременных запросов к источнику
const refreshLimit = 4

type quote struct {
	value     decimal.Decimal
	updatedAt time.Time // нулевое время - значение по умолчанию из каталога
}

type serv struct {
	source   client.PriceSource
	symbols  map[string]string // актив -> символ у источника
	interval time.Duration
	log      *logrus.Entry

	mu     sync.RWMutex
	quotes map[string]quote
}

// NewPriceService Цены в USD. Стартует со значениями из каталога, дальше обновляется по интервалу.
func NewPriceService(
	source client.PriceSource,
	defaults map[string]decimal.Decimal,
	symbols map[string]string,
	interval time.Duration,
	log *logrus.Entry,
) service.PriceService {
	quotes := make(map[string]quote, len(defaults))
	for asset, v := range defaults {
		quotes[strings.ToLower(asset)] = quote{value: v}
	}
	normalized := make(map[string]string, len(symbols))
	for asset, sym := range symbols {
		normalized[strings.ToLower(asset)] = sym
	}

	return &serv{
		source:   source,
		symbols:  normalized,
		interval: interval,
		log:      log,
		quotes:   quotes,
	}
}

func (s *serv) Price(asset string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[strings.ToLower(asset)]
	if !ok || !q.value.IsPositive() {
		return decimal.Zero, false
	}
	return q.value, true
}

// Stale Цена не обновлялась дольше maxAge или ни разу
func (s *serv) Stale(asset string, maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[strings.ToLower(asset)]
	if !ok || q.updatedAt.IsZero() {
		return true
	}
	return time.Since(q.updatedAt) > maxAge
}

// Refresh Запрашивает все котировки. Неудачные сохраняют прежнее значение.
func (s *serv) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(refreshLimit)

	for asset, symbol := range s.symbols {
		g.Go(func() error {
			v, err := s.source.Quote(ctx, symbol)
			if err != nil {
				s.log.WithError(err).WithField("asset", asset).Warn("price refresh failed")
				return fmt.Errorf("quote %s: %w", asset, err)
			}

			s.mu.Lock()
			s.quotes[asset] = quote{value: v, updatedAt: time.Now()}
			s.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// Run Обновляет цены до отмены контекста
func (s *serv) Run(ctx context.Context) {
	if len(s.symbols) == 0 || s.interval <= 0 {
		return
	}

	_ = s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}
