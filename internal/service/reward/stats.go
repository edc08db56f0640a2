package reward

import (
	"xbit_backend/internal/model"

	"github.com/shopspring/decimal"
)

func hasBasis(t model.ProbabilityTable, basis model.RewardBasis) bool {
	for _, tier := range t.Tiers {
		if tier.Basis == basis {
			return true
		}
	}
	return false
}

// WinRate Вероятность выигрыша за игру.
// Для pool-уровней нужны размер пула и цена, без них значение откладывается (ErrStatsUnavailable).
func WinRate(t model.ProbabilityTable, poolSize, price decimal.Decimal) (decimal.Decimal, error) {
	if hasBasis(t, model.BasisPool) && (!poolSize.IsPositive() || !price.IsPositive()) {
		return decimal.Zero, model.ErrStatsUnavailable
	}

	rate := decimal.Zero
	for _, tier := range t.Tiers {
		if tier.Reward == 0 {
			continue
		}
		expect := decimal.NewFromUint64(tier.Expectation)
		reward := decimal.NewFromUint64(tier.Reward)
		switch tier.Basis {
		case model.BasisInput:
			rate = rate.Add(expect.DivRound(reward, divPrecision))
		case model.BasisPool:
			rate = rate.Add(expect.DivRound(poolSize.Mul(reward).Mul(price), divPrecision))
		}
	}
	return rate, nil
}

// Jackpot Максимальная выплата за один повтор
func Jackpot(t model.ProbabilityTable, poolSize, price decimal.Decimal) (decimal.Decimal, error) {
	var maxPool, maxInput uint64
	for _, tier := range t.Tiers {
		switch tier.Basis {
		case model.BasisPool:
			maxPool = max(maxPool, tier.Reward)
		case model.BasisInput:
			maxInput = max(maxInput, tier.Reward)
		}
	}

	hasPool := hasBasis(t, model.BasisPool)
	hasInput := hasBasis(t, model.BasisInput)

	inputJackpot := decimal.NewFromUint64(maxInput).Div(scale)
	if !hasPool {
		return inputJackpot, nil
	}
	if !poolSize.IsPositive() {
		return decimal.Zero, model.ErrStatsUnavailable
	}
	poolJackpot := decimal.NewFromUint64(maxPool).Mul(poolSize).Div(scale)
	if !hasInput {
		return poolJackpot, nil
	}
	if !price.IsPositive() {
		return decimal.Zero, model.ErrStatsUnavailable
	}

	return decimal.Max(poolJackpot.Mul(price), inputJackpot).DivRound(price, divPrecision), nil
}

// PayoutRatio Ожидаемая доля выплат на единицу ставки. Только для отображения.
func PayoutRatio(t model.ProbabilityTable) decimal.Decimal {
	sum := decimal.Zero
	for _, tier := range t.Tiers {
		sum = sum.Add(decimal.NewFromUint64(tier.Expectation))
	}
	return sum.Div(scale)
}
