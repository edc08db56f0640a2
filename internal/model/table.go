package model

// Scale Множитель для ожиданий и наград в таблице
const Scale = 1_000_000

// RewardBasis Относительно чего считается награда. Значения совпадают с кодированием в контракте.
type RewardBasis uint8

const (
	BasisPool  RewardBasis = 0
	BasisInput RewardBasis = 1
)

func (b RewardBasis) String() string {
	switch b {
	case BasisPool:
		return "pool"
	case BasisInput:
		return "input"
	default:
		return "unknown"
	}
}

// RewardTier Одна строка таблицы вероятностей
type RewardTier struct {
	Basis       RewardBasis `yaml:"basis"`
	Expectation uint64      `yaml:"expectation"` // * 1e6
	Reward      uint64      `yaml:"reward"`      // * 1e6
}

// ProbabilityTable Таблица вероятностей. Не меняется после загрузки.
type ProbabilityTable struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	OutputAsset string       `yaml:"output_asset"`
	Tag         string       `yaml:"tag"`
	Tiers       []RewardTier `yaml:"tiers"`
}

// TrailingLevel Индекс виртуального уровня без денежного приза
func (t ProbabilityTable) TrailingLevel() int {
	return len(t.Tiers)
}

func (t ProbabilityTable) Clone() ProbabilityTable {
	out := t
	out.Tiers = make([]RewardTier, len(t.Tiers))
	copy(out.Tiers, t.Tiers)
	return out
}

// TableStats Агрегаты таблицы для отображения. nil - значение отложено (нет цены или размера пула).
type TableStats struct {
	TableID     string
	WinRate     *float64
	Jackpot     *float64
	PayoutRatio float64
}
