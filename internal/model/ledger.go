package model

import "github.com/shopspring/decimal"

// Имена событий в квитанции
const (
	EventPlayRequested = "PlayRequested"
	EventPlayResult    = "PlayResult"
)

// PlayRequest То, что уходит в контракт
type PlayRequest struct {
	Owner           string
	InputAsset      string
	Stake           decimal.Decimal // за один повтор
	Repeats         int
	OutputAsset     string
	Table           ProbabilityTable
	DonationCauseID string
}

type PendingTx struct {
	Hash string
}

type ReceiptEvent struct {
	Name         string
	PlayID       string
	RequestID    string
	GoodReceived decimal.Decimal
}

type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Events      []ReceiptEvent
}

// Event Первое событие с указанным именем
func (r Receipt) Event(name string) (ReceiptEvent, bool) {
	for _, e := range r.Events {
		if e.Name == name {
			return e, true
		}
	}
	return ReceiptEvent{}, false
}

// PlayStatus Статус игры по ID, как его отдает контракт
type PlayStatus struct {
	PlayID         string
	RequestID      string
	Player         string
	Fulfilled      bool
	BlockNumber    uint64
	TableID        string
	InputAsset     string
	InputAmount    decimal.Decimal // за один повтор
	Repeats        int
	OutputAsset    string
	RandomWord     string
	OutcomeLevels  []int
	OutputTotal    decimal.NullDecimal
	SecondaryTotal decimal.Decimal
}

// ApprovalRequest Требование к allowance перед игрой
type ApprovalRequest struct {
	Asset     string
	Spender   string
	Required  decimal.Decimal
	Amount    decimal.Decimal // Сколько одобрить, если не хватает
	Unlimited bool
}
