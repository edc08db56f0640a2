package reward

import (
	"errors"
	"fmt"

	"xbit_backend/internal/model"

	"github.com/shopspring/decimal"
)

var ErrMalformedTable = errors.New("malformed probability table")

func malformed(format string, args ...any) error {
	return model.NewPlayError(model.KindResolution, "reward.ValidateTable",
		fmt.Errorf("%w: %s", ErrMalformedTable, fmt.Sprintf(format, args...)))
}

// ValidateTable Структурная проверка при загрузке таблицы.
// Pool-уровни зависят от пула и цены, поэтому здесь проверяется только input-часть вероятности.
func ValidateTable(t model.ProbabilityTable) error {
	if t.ID == "" {
		return malformed("empty id")
	}
	if t.OutputAsset == "" {
		return malformed("table %s: empty output asset", t.ID)
	}
	if len(t.Tiers) == 0 {
		return malformed("table %s: no tiers", t.ID)
	}

	inputRate := decimal.Zero
	for i, tier := range t.Tiers {
		if tier.Basis != model.BasisInput && tier.Basis != model.BasisPool {
			return malformed("table %s tier %d: unknown basis %d", t.ID, i, tier.Basis)
		}
		if tier.Reward == 0 {
			return malformed("table %s tier %d: zero reward", t.ID, i)
		}
		if tier.Basis == model.BasisInput {
			inputRate = inputRate.Add(decimal.NewFromUint64(tier.Expectation).DivRound(decimal.NewFromUint64(tier.Reward), divPrecision))
		}
	}
	if inputRate.GreaterThan(decimal.NewFromInt(1)) {
		return malformed("table %s: win rate %s above 1", t.ID, inputRate.String())
	}

	return nil
}

// ValidateTableAt Полная проверка вероятности при известных пуле и цене
func ValidateTableAt(t model.ProbabilityTable, poolSize, price decimal.Decimal) error {
	if err := ValidateTable(t); err != nil {
		return err
	}
	rate, err := WinRate(t, poolSize, price)
	if err != nil {
		return err
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return malformed("table %s: win rate %s outside [0,1]", t.ID, rate.String())
	}
	return nil
}
