package preflight

import (
	"context"
	"fmt"
	"strings"

	"xbit_backend/internal/client"
	"xbit_backend/internal/metrics"
	"xbit_backend/internal/model"
	"xbit_backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ApproveCeiling     decimal.Decimal // Минимальная сумма одобрения, чтобы не одобрять каждую игру
	SecondaryThreshold decimal.Decimal // Ниже этого allowance на EXP одобряется заново
}

type serv struct {
	ledgers map[int64]client.LedgerClient
	cfg     Config
	log     *logrus.Entry
}

func NewPreflightService(ledgers map[int64]client.LedgerClient, cfg Config, log *logrus.Entry) service.PreflightService {
	return &serv{
		ledgers: ledgers,
		cfg:     cfg,
		log:     log,
	}
}

// Plan Требования к allowance для игры
func (s *serv) Plan(intent model.PlayIntent) ([]model.ApprovalRequest, error) {
	if !intent.Stake.IsPositive() {
		return nil, fmt.Errorf("%w: stake must be positive", model.ErrInvalidIntent)
	}
	if intent.Repeats < 1 {
		return nil, fmt.Errorf("%w: repeats must be at least 1", model.ErrInvalidIntent)
	}
	if intent.Currency != model.CurrencyUSDT && intent.Currency != model.CurrencyUSDC {
		return nil, fmt.Errorf("%w: unsupported currency %q", model.ErrInvalidIntent, intent.Currency)
	}

	// Игры с пожертвованием идут через отдельный контракт
	spender := client.SpenderPlay
	if intent.HasCause() {
		spender = client.SpenderCharity
	}

	required := intent.Stake.Mul(decimal.NewFromInt(int64(intent.Repeats)))
	reqs := []model.ApprovalRequest{{
		Asset:    strings.ToLower(intent.Currency),
		Spender:  spender,
		Required: required,
		Amount:   decimal.Max(required, s.cfg.ApproveCeiling),
	}}

	if intent.HasCause() {
		reqs = append(reqs, model.ApprovalRequest{
			Asset:     client.AssetSecondary,
			Spender:   client.SpenderSecondary,
			Required:  s.cfg.SecondaryThreshold,
			Unlimited: true,
		})
	}
	return reqs, nil
}

// Ensure Проверяет allowance и одобряет недостающее. Любая ошибка - PreflightFailure.
func (s *serv) Ensure(ctx context.Context, chainID int64, owner string, reqs []model.ApprovalRequest) error {
	const op = "preflight.Ensure"

	ledger, ok := s.ledgers[chainID]
	if !ok {
		return model.NewPlayError(model.KindPreflight, op, fmt.Errorf("%w: %d", model.ErrUnknownNetwork, chainID))
	}

	for _, req := range reqs {
		log := s.log.WithFields(logrus.Fields{
			"chain_id": chainID,
			"asset":    req.Asset,
			"spender":  req.Spender,
		})

		allowance, err := ledger.Allowance(ctx, req.Asset, owner, req.Spender)
		if err != nil {
			return model.NewPlayError(model.KindPreflight, op, fmt.Errorf("read allowance: %w", err))
		}
		if allowance.GreaterThanOrEqual(req.Required) {
			continue
		}

		log.WithFields(logrus.Fields{
			"allowance": allowance.String(),
			"required":  req.Required.String(),
		}).Info("approving spend")

		tx, err := ledger.Approve(ctx, req.Asset, req.Spender, req.Amount, req.Unlimited)
		if err != nil {
			metrics.Approval(req.Asset, false)
			return model.NewPlayError(model.KindPreflight, op, fmt.Errorf("approve: %w", err))
		}
		if _, err := ledger.AwaitReceipt(ctx, tx); err != nil {
			metrics.Approval(req.Asset, false)
			return model.NewPlayError(model.KindPreflight, op, fmt.Errorf("approval receipt: %w", err))
		}
		metrics.Approval(req.Asset, true)
	}
	return nil
}
