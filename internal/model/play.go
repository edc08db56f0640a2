package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage Этап жизненного цикла игры
type Stage int

const (
	StageWaitingForTrx Stage = iota
	StageWaitingForReceipt
	StageRequestingRandomness
	StageWaitingForResult
	StageFulfilled
	StageFailed
)

var stageNames = map[Stage]string{
	StageWaitingForTrx:        "WaitingForTrx",
	StageWaitingForReceipt:    "WaitingForReceipt",
	StageRequestingRandomness: "RequestingRandomness",
	StageWaitingForResult:     "WaitingForResult",
	StageFulfilled:            "Fulfilled",
	StageFailed:               "Failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsTerminal Fulfilled и Failed - конечные состояния
func (s Stage) IsTerminal() bool {
	return s == StageFulfilled || s == StageFailed
}

// Валюты ставки
const (
	CurrencyUSDT = "USDT"
	CurrencyUSDC = "USDC"
)

// PlayIntent Намерение пользователя сыграть
type PlayIntent struct {
	Owner           string          // Адрес кошелька
	SessionID       string          // Сессия кошелька (для поздравления)
	ChainID         int64           // Сеть, в которой стартует игра
	TableID         string          // Таблица вероятностей
	Stake           decimal.Decimal // Ставка за один повтор
	Repeats         int             // Количество повторов
	Currency        string          // USDT или USDC
	DonationCauseID string          // Пустая строка - обычная игра
}

func (i PlayIntent) HasCause() bool {
	return i.DonationCauseID != ""
}

// Failure Причина падения игры, в том виде, в котором ее видит пользователь
type Failure struct {
	Kind    FailureKind
	Message string
}

// PlayRecord Одна игра, активная или завершенная
type PlayRecord struct {
	ID              uuid.UUID
	PlayID          string
	RequestID       string
	Stage           Stage
	StartTime       time.Time
	StartBlock      uint64
	TransactionHash string
	ChainID         int64
	Owner           string
	SessionID       string
	TableID         string
	Stake           decimal.Decimal
	Repeats         int
	Currency        string
	DonationCauseID string
	CauseReward     decimal.Decimal // goodReceivedAmount из квитанции, только для игр с пожертвованием
	Randomness      string
	Rewards         []Reward
	Failure         *Failure
	Resumed         bool
	UpdatedAt       time.Time
}

func (p PlayRecord) HasCause() bool {
	return p.DonationCauseID != ""
}

// Key Ключ записи: хеш транзакции, а до его появления - ID записи
func (p PlayRecord) Key() string {
	if p.TransactionHash != "" {
		return p.TransactionHash
	}
	return p.ID.String()
}

// Clone Глубокая копия, чтобы снаружи никто не менял запись в коллекции
func (p PlayRecord) Clone() PlayRecord {
	out := p
	if p.Rewards != nil {
		out.Rewards = make([]Reward, len(p.Rewards))
		copy(out.Rewards, p.Rewards)
	}
	if p.Failure != nil {
		f := *p.Failure
		out.Failure = &f
	}
	return out
}
