package play

import "time"

type SubmitRequest struct {
	ChainID         int64  `json:"chain_id"`          // 0 - выбранная сеть
	TableID         string `json:"table_id"`          // Таблица вероятностей
	Stake           string `json:"stake"`             // Ставка за один повтор, десятичная строка
	Repeats         int    `json:"repeats"`           // Количество повторов
	Currency        string `json:"currency"`          // USDT или USDC
	DonationCauseID string `json:"donation_cause_id"` // Пусто - обычная игра
}

type ReconcileRequest struct {
	ChainID int64 `json:"chain_id"`
}

type ResumeRequest struct {
	ChainID int64    `json:"chain_id"`
	PlayIDs []string `json:"play_ids"`
}

type NetworkRequest struct {
	ChainID int64 `json:"chain_id"`
}

type NetworkResponse struct {
	ChainID int64 `json:"chain_id"`
}

type PlayResponse struct {
	ID              string    `json:"id"`
	Key             string    `json:"key"` // Хеш транзакции или ID записи
	PlayID          string    `json:"play_id,omitempty"`
	RequestID       string    `json:"request_id,omitempty"`
	Stage           string    `json:"stage"`
	Phase           string    `json:"phase"` // Фаза анимации
	StartTime       time.Time `json:"start_time"`
	StartBlock      uint64    `json:"start_block"`
	TransactionHash string    `json:"tx_hash,omitempty"`
	ChainID         int64     `json:"chain_id"`
	TableID         string    `json:"table_id"`
	Stake           string    `json:"stake"`
	Repeats         int       `json:"repeats"`
	Currency        string    `json:"currency"`
	DonationCauseID string    `json:"donation_cause_id,omitempty"`
	Randomness      string    `json:"randomness,omitempty"`
	Rewards         []Reward  `json:"rewards"`
	Failure         *Failure  `json:"failure,omitempty"`
	Resumed         bool      `json:"resumed"`
}

type Reward struct {
	Level      int    `json:"level"`
	Unit       string `json:"unit"` // OUTPUT, EXP или GOOD
	Value      string `json:"value"`
	Multiplier int64  `json:"multiplier"`
}

type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type EventResponse struct {
	Type string       `json:"type"`
	Play PlayResponse `json:"play"`
}
