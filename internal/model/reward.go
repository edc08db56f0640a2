package model

import "github.com/shopspring/decimal"

type RewardUnit string

const (
	UnitOutput RewardUnit = "OUTPUT"
	UnitExp    RewardUnit = "EXP"
	UnitGood   RewardUnit = "GOOD"
)

// Reward Результат одного повтора
type Reward struct {
	Level      int
	Unit       RewardUnit
	Value      decimal.Decimal
	Multiplier int64 // Для отображения, не хранится
}
