package reward

import (
	"errors"
	"fmt"

	"xbit_backend/internal/model"

	"github.com/shopspring/decimal"
)

const divPrecision = 18

var scale = decimal.NewFromInt(model.Scale)

var (
	ErrLevelOutOfRange    = errors.New("outcome level out of range")
	ErrUnknownBasis       = errors.New("unknown reward basis")
	ErrNonPositiveStake   = errors.New("stake must be positive")
	ErrOutputPriceMissing = errors.New("output asset price required for input-relative tier")
	ErrStakePriceMissing  = errors.New("stake asset price required for input-relative tier")
	ErrNoOutputTotal      = errors.New("neither output total nor pool size reported")
	ErrNoRepeats          = errors.New("outcome levels are empty")
)

// ResolveInput Все, что нужно для разбора результата одной игры
type ResolveInput struct {
	Table          model.ProbabilityTable
	OutcomeLevels  []int
	Stake          decimal.Decimal // за один повтор, в валюте ставки
	StakePrice     decimal.Decimal // цена валюты ставки в USD
	PoolSize       decimal.NullDecimal
	OutputPrice    decimal.NullDecimal
	OutputTotal    decimal.NullDecimal
	SecondaryTotal decimal.Decimal
	CauseReward    decimal.NullDecimal // задан - игра с пожертвованием
}

func violation(err error) error {
	return model.NewPlayError(model.KindResolution, "reward.Resolve", err)
}

// Resolve Переводит вектор уровней от контракта в список наград, по одной на каждый повтор.
// Чистая функция: одинаковый вход - одинаковый выход.
func Resolve(in ResolveInput) ([]model.Reward, error) {
	if len(in.OutcomeLevels) == 0 {
		return nil, violation(ErrNoRepeats)
	}
	if !in.Stake.IsPositive() {
		return nil, violation(ErrNonPositiveStake)
	}

	tiers := in.Table.Tiers
	trailing := in.Table.TrailingLevel()
	stakeUsd := in.Stake.Mul(in.StakePrice)

	// Первый проход: проверка уровней, сумма input-наград и сумма магнитуд pool-уровней (с повторами)
	inputTotal := decimal.Zero
	poolMagnitudes := decimal.Zero
	for _, level := range in.OutcomeLevels {
		if level < 0 || level > trailing {
			return nil, violation(fmt.Errorf("%w: %d of %d", ErrLevelOutOfRange, level, trailing))
		}
		if level == trailing {
			continue
		}
		tier := tiers[level]
		switch tier.Basis {
		case model.BasisInput:
			if !in.StakePrice.IsPositive() {
				return nil, violation(ErrStakePriceMissing)
			}
			if !in.OutputPrice.Valid || !in.OutputPrice.Decimal.IsPositive() {
				return nil, violation(ErrOutputPriceMissing)
			}
			usd := inputUsd(tier, stakeUsd)
			inputTotal = inputTotal.Add(usd.DivRound(in.OutputPrice.Decimal, divPrecision))
		case model.BasisPool:
			poolMagnitudes = poolMagnitudes.Add(decimal.NewFromUint64(tier.Reward))
		default:
			return nil, violation(fmt.Errorf("%w: %d", ErrUnknownBasis, tier.Basis))
		}
	}

	// Контракт отдает только общую сумму выхода, pool-часть делим пропорционально магнитудам
	budget := decimal.Zero
	if in.OutputTotal.Valid {
		budget = in.OutputTotal.Decimal.Sub(inputTotal)
		if budget.IsNegative() {
			budget = decimal.Zero
		}
	}

	rewards := make([]model.Reward, 0, len(in.OutcomeLevels))
	for _, level := range in.OutcomeLevels {
		if level == trailing {
			rewards = append(rewards, virtualReward(in, level))
			continue
		}

		tier := tiers[level]
		if tier.Basis == model.BasisInput {
			usd := inputUsd(tier, stakeUsd)
			rewards = append(rewards, model.Reward{
				Level:      level,
				Unit:       model.UnitOutput,
				Value:      usd.DivRound(in.OutputPrice.Decimal, divPrecision),
				Multiplier: usd.DivRound(stakeUsd, divPrecision).Floor().IntPart(),
			})
			continue
		}

		value, err := poolValue(in, tier, poolMagnitudes, budget)
		if err != nil {
			return nil, violation(err)
		}
		// Без цены ставки множитель неизвестен, награда от этого не зависит
		var multiplier int64
		if in.OutputPrice.Valid && stakeUsd.IsPositive() {
			multiplier = value.Mul(in.OutputPrice.Decimal).DivRound(stakeUsd, divPrecision).Floor().IntPart()
		}
		rewards = append(rewards, model.Reward{
			Level:      level,
			Unit:       model.UnitOutput,
			Value:      value,
			Multiplier: multiplier,
		})
	}

	return rewards, nil
}

func inputUsd(tier model.RewardTier, stakeUsd decimal.Decimal) decimal.Decimal {
	return decimal.NewFromUint64(tier.Reward).Mul(stakeUsd).Div(scale)
}

func poolValue(in ResolveInput, tier model.RewardTier, magnitudes, budget decimal.Decimal) (decimal.Decimal, error) {
	magnitude := decimal.NewFromUint64(tier.Reward)
	if in.OutputTotal.Valid {
		if magnitudes.IsZero() {
			return decimal.Zero, nil
		}
		return magnitude.DivRound(magnitudes, divPrecision).Mul(budget), nil
	}
	if in.PoolSize.Valid {
		return magnitude.Mul(in.PoolSize.Decimal).Div(scale), nil
	}
	return decimal.Zero, ErrNoOutputTotal
}

func virtualReward(in ResolveInput, level int) model.Reward {
	if in.CauseReward.Valid {
		return model.Reward{
			Level: level,
			Unit:  model.UnitGood,
			Value: in.CauseReward.Decimal,
		}
	}
	return model.Reward{
		Level: level,
		Unit:  model.UnitExp,
		Value: in.SecondaryTotal.DivRound(decimal.NewFromInt(int64(len(in.OutcomeLevels))), divPrecision),
	}
}
