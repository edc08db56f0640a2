package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xbit_backend/internal/client"
	"xbit_backend/internal/metrics"
	"xbit_backend/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const op = "poller.Await"

// Config Параметры опроса статуса
type Config struct {
	Interval   time.Duration // Пауза между запросами статуса
	Timeout    time.Duration // Бюджет с момента входа в WaitingForResult
	Attempts   int           // Попыток на один запрос статуса
	RetryDelay time.Duration // Пауза между попытками
}

// Supervisor Опрашивает статус игры до fulfilled или до таймаута
type Supervisor struct {
	ledger  client.LedgerClient
	cfg     Config
	limiter *rate.Limiter
	log     *logrus.Entry
}

// New limiter общий для всех супервизоров сети, может быть nil
func New(ledger client.LedgerClient, cfg Config, limiter *rate.Limiter, log *logrus.Entry) *Supervisor {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Supervisor{
		ledger:  ledger,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}
}

// Await Блокируется до результата. Таймаут отсчитывается от вызова.
// Отмена родительского контекста возвращается как есть, без PlayError:
// игра не помечается невалидной и будет восстановлена при следующем старте.
func (s *Supervisor) Await(ctx context.Context, playID string) (*model.PlayStatus, error) {
	pollCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	log := s.log.WithField("play_id", playID)
	started := time.Now()

	for {
		status, err := s.query(pollCtx, playID)
		if err != nil {
			return nil, s.classify(ctx, pollCtx, err)
		}
		if status.Fulfilled {
			log.WithField("elapsed", time.Since(started).String()).Debug("play fulfilled")
			return status, nil
		}

		timer := time.NewTimer(s.cfg.Interval)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			return nil, s.classify(ctx, pollCtx, pollCtx.Err())
		case <-timer.C:
		}
	}
}

func (s *Supervisor) classify(parent, pollCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if pollCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		metrics.StatusQuery("timeout")
		return model.NewPlayError(model.KindPollTimeout, op, model.ErrTimedOut)
	}
	if errors.Is(err, model.ErrLedgerRevert) {
		return model.NewPlayError(model.KindPollTimeout, op, err)
	}
	// Попытки исчерпаны: транзиентная ошибка эскалируется до таймаута
	return model.NewPlayError(model.KindPollTimeout, op,
		fmt.Errorf("%s: retries exhausted: %w", model.KindPollingTransient, err))
}

// query Один запрос статуса с ограниченным повтором для сетевых ошибок
func (s *Supervisor) query(ctx context.Context, playID string) (*model.PlayStatus, error) {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.RetryDelay), uint64(s.cfg.Attempts-1)),
		ctx,
	)

	return backoff.RetryNotifyWithData(func() (*model.PlayStatus, error) {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(fmt.Errorf("%w: %v", context.DeadlineExceeded, err))
			}
		}

		status, err := s.ledger.GetStatusByID(ctx, playID)
		if err != nil {
			if errors.Is(err, model.ErrLedgerRevert) {
				metrics.StatusQuery("revert")
				return nil, backoff.Permanent(err)
			}
			metrics.StatusQuery("transient")
			return nil, err
		}

		if status.Fulfilled {
			metrics.StatusQuery("fulfilled")
		} else {
			metrics.StatusQuery("pending")
		}
		return status, nil
	}, b, func(err error, next time.Duration) {
		s.log.WithError(err).
			WithField("play_id", playID).
			WithField("retry_in", next.String()).
			Warn("status query failed")
	})
}

// Status Один запрос статуса с повтором, без ожидания fulfilled
func (s *Supervisor) Status(ctx context.Context, playID string) (*model.PlayStatus, error) {
	status, err := s.query(ctx, playID)
	if err != nil {
		return nil, s.classify(ctx, ctx, err)
	}
	return status, nil
}
