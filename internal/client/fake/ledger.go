// Package fake содержит программируемый LedgerClient для тестов сервисов.
package fake

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"xbit_backend/internal/model"

	"github.com/shopspring/decimal"
)

type Approval struct {
	Asset     string
	Spender   string
	Amount    decimal.Decimal
	Unlimited bool
}

// Время блока 0 и интервал между блоками
var (
	GenesisTime   = time.Unix(1_700_000_000, 0)
	BlockInterval = 12 * time.Second
)

// Ledger Потокобезопасная имитация контрактов одной сети
type Ledger struct {
	mu sync.Mutex

	chainID int64
	signer  string
	block   uint64
	nextID  int

	SubmitErr  error
	ReceiptErr error
	ApproveErr error
	// DropEvents - квитанция без ожидаемого события
	DropEvents bool
	// GoodPerRepeat - goodReceivedAmount для игр с пожертвованием
	GoodPerRepeat decimal.Decimal
	// StatusFn переопределяет ответ GetStatusByID, call начинается с 1
	StatusFn func(call int, playID string) (*model.PlayStatus, error)

	statuses    map[string]*model.PlayStatus
	statusCalls map[string]int
	allowances  map[string]decimal.Decimal
	playIDs     map[string][]string
	pools       map[string]decimal.Decimal

	submitted []model.PlayRequest
	approvals []Approval
	requests  map[string]model.PlayRequest // по хешу транзакции
}

func NewLedger(chainID int64) *Ledger {
	return &Ledger{
		chainID:     chainID,
		block:       100,
		statuses:    make(map[string]*model.PlayStatus),
		statusCalls: make(map[string]int),
		allowances:  make(map[string]decimal.Decimal),
		playIDs:     make(map[string][]string),
		pools:       make(map[string]decimal.Decimal),
		requests:    make(map[string]model.PlayRequest),
	}
}

func allowanceKey(asset, owner, spender string) string {
	return asset + "|" + owner + "|" + spender
}

func (l *Ledger) ChainID() int64 {
	return l.chainID
}

func (l *Ledger) Signer() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.signer
}

func (l *Ledger) SubmitPlay(_ context.Context, req model.PlayRequest) (model.PendingTx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.SubmitErr != nil {
		return model.PendingTx{}, l.SubmitErr
	}
	l.submitted = append(l.submitted, req)
	hash := fmt.Sprintf("0x%064x", len(l.submitted))
	l.requests[hash] = req
	return model.PendingTx{Hash: hash}, nil
}

func (l *Ledger) AwaitReceipt(ctx context.Context, tx model.PendingTx) (*model.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ReceiptErr != nil {
		return nil, l.ReceiptErr
	}
	l.block++
	receipt := &model.Receipt{TxHash: tx.Hash, BlockNumber: l.block}

	req, ok := l.requests[tx.Hash]
	if !ok || l.DropEvents {
		return receipt, nil
	}

	l.nextID++
	playID := strconv.Itoa(l.nextID)
	requestID := "req-" + playID
	l.playIDs[req.Owner] = append(l.playIDs[req.Owner], playID)
	if _, exists := l.statuses[playID]; !exists {
		l.statuses[playID] = &model.PlayStatus{PlayID: playID, RequestID: requestID, Player: req.Owner, BlockNumber: l.block}
	}

	if req.DonationCauseID != "" {
		receipt.Events = append(receipt.Events, model.ReceiptEvent{
			Name:         model.EventPlayResult,
			PlayID:       playID,
			GoodReceived: l.GoodPerRepeat,
		})
	} else {
		receipt.Events = append(receipt.Events, model.ReceiptEvent{
			Name:      model.EventPlayRequested,
			PlayID:    playID,
			RequestID: requestID,
		})
	}
	return receipt, nil
}

func (l *Ledger) GetStatusByID(ctx context.Context, playID string) (*model.PlayStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.statusCalls[playID]++
	call := l.statusCalls[playID]
	fn := l.StatusFn
	status, ok := l.statuses[playID]
	var copied model.PlayStatus
	if ok {
		copied = *status
	}
	l.mu.Unlock()

	if fn != nil {
		return fn(call, playID)
	}
	if !ok {
		return &model.PlayStatus{PlayID: playID}, nil
	}
	return &copied, nil
}

func (l *Ledger) CurrentBlockHeight(context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.block, nil
}

func (l *Ledger) BlockTime(_ context.Context, height uint64) (time.Time, error) {
	return GenesisTime.Add(time.Duration(height) * BlockInterval), nil
}

func (l *Ledger) Allowance(_ context.Context, asset, owner, spender string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[allowanceKey(asset, owner, spender)], nil
}

func (l *Ledger) Approve(_ context.Context, asset, spender string, amount decimal.Decimal, unlimited bool) (model.PendingTx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ApproveErr != nil {
		return model.PendingTx{}, l.ApproveErr
	}
	l.approvals = append(l.approvals, Approval{Asset: asset, Spender: spender, Amount: amount, Unlimited: unlimited})
	return model.PendingTx{Hash: fmt.Sprintf("0xapprove%d", len(l.approvals))}, nil
}

func (l *Ledger) ListPlayIDs(_ context.Context, owner string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.playIDs[owner]...), nil
}

func (l *Ledger) PoolSize(_ context.Context, asset string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pools[asset], nil
}

// --- настройка и проверки ---

func (l *Ledger) SetSigner(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signer = addr
}

func (l *Ledger) SetStatus(status model.PlayStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses[status.PlayID] = &status
}

// Fulfill Помечает игру исполненной
func (l *Ledger) Fulfill(playID string, levels []int, outputTotal, secondaryTotal decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	status, ok := l.statuses[playID]
	if !ok {
		status = &model.PlayStatus{PlayID: playID, RequestID: "req-" + playID}
		l.statuses[playID] = status
	}
	status.Fulfilled = true
	status.OutcomeLevels = levels
	status.OutputTotal = decimal.NewNullDecimal(outputTotal)
	status.SecondaryTotal = secondaryTotal
	status.RandomWord = "0x2a"
}

func (l *Ledger) SetAllowance(asset, owner, spender string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey(asset, owner, spender)] = amount
}

func (l *Ledger) SetPlayIDs(owner string, ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.playIDs[owner] = ids
}

func (l *Ledger) SetPool(asset string, size decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pools[asset] = size
}

func (l *Ledger) StatusCalls(playID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusCalls[playID]
}

func (l *Ledger) Submitted() []model.PlayRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.PlayRequest(nil), l.submitted...)
}

func (l *Ledger) Approvals() []Approval {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Approval(nil), l.approvals...)
}
