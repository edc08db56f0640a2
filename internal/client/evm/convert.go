package evm

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"xbit_backend/internal/model"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

var errBadID = errors.New("evm: malformed numeric id")

// maxUint256 Бесконечный allowance
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// playStatusTuple Поля совпадают с компонентами кортежа status
type playStatusTuple struct {
	Fulfilled         bool
	Id                *big.Int
	BlockNumber       *big.Int
	Player            common.Address
	InputToken        common.Address
	InputAmount       *big.Int
	Repeats           *big.Int
	OutputToken       common.Address
	TableId           *big.Int
	RequestId         *big.Int
	RandomWord        *big.Int
	OutcomeLevels     []*big.Int
	OutputTotalAmount *big.Int
	OutputXexpAmount  *big.Int
}

func toBaseUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).BigInt()
}

func fromBaseUnits(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}

func parseID(id string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(id, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", errBadID, id)
	}
	return v, nil
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

// wrapCallErr Ревертам проставляется model.ErrLedgerRevert, остальное считается временной ошибкой
func wrapCallErr(op string, err error) error {
	if isRevert(err) {
		return fmt.Errorf("%s: %w: %v", op, model.ErrLedgerRevert, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// tokenBook Символы и разрядность токенов сети
type tokenBook struct {
	bySymbol  map[string]tokenRef
	byAddress map[common.Address]tokenRef
}

type tokenRef struct {
	Symbol   string
	Address  common.Address
	Decimals int32
}

func newTokenBook(refs []tokenRef) tokenBook {
	book := tokenBook{
		bySymbol:  make(map[string]tokenRef, len(refs)),
		byAddress: make(map[common.Address]tokenRef, len(refs)),
	}
	for _, r := range refs {
		r.Symbol = strings.ToLower(r.Symbol)
		book.bySymbol[r.Symbol] = r
		book.byAddress[r.Address] = r
	}
	return book
}

func (b tokenBook) symbol(sym string) (tokenRef, error) {
	ref, ok := b.bySymbol[strings.ToLower(sym)]
	if !ok {
		return tokenRef{}, fmt.Errorf("evm: unknown asset %q", sym)
	}
	return ref, nil
}

// address Неизвестный токен считается 18-знаковым и называется по адресу
func (b tokenBook) address(addr common.Address) tokenRef {
	if ref, ok := b.byAddress[addr]; ok {
		return ref
	}
	return tokenRef{Symbol: strings.ToLower(addr.Hex()), Address: addr, Decimals: 18}
}

func (b tokenBook) decimalsOf(sym string, fallback int32) int32 {
	if ref, ok := b.bySymbol[strings.ToLower(sym)]; ok {
		return ref.Decimals
	}
	return fallback
}

func (b tokenBook) toStatus(t playStatusTuple) *model.PlayStatus {
	input := b.address(t.InputToken)
	output := b.address(t.OutputToken)
	expDecimals := b.decimalsOf("exp", 18)

	status := &model.PlayStatus{
		PlayID:         bigString(t.Id),
		RequestID:      bigString(t.RequestId),
		Player:         t.Player.Hex(),
		Fulfilled:      t.Fulfilled,
		TableID:        bigString(t.TableId),
		InputAsset:     input.Symbol,
		InputAmount:    fromBaseUnits(t.InputAmount, input.Decimals),
		OutputAsset:    output.Symbol,
		SecondaryTotal: fromBaseUnits(t.OutputXexpAmount, expDecimals),
	}
	if t.BlockNumber != nil {
		status.BlockNumber = t.BlockNumber.Uint64()
	}
	if t.Repeats != nil {
		status.Repeats = int(t.Repeats.Int64())
	}
	if t.RandomWord != nil {
		status.RandomWord = "0x" + t.RandomWord.Text(16)
	}
	if t.Fulfilled {
		status.OutcomeLevels = make([]int, len(t.OutcomeLevels))
		for i, lvl := range t.OutcomeLevels {
			status.OutcomeLevels[i] = int(lvl.Int64())
		}
		status.OutputTotal = decimal.NewNullDecimal(fromBaseUnits(t.OutputTotalAmount, output.Decimals))
	}
	return status
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// decodeEvents Достает события игры из логов квитанции
func decodeEvents(logs []*types.Log, play, charity common.Address, goodDecimals int32) ([]model.ReceiptEvent, error) {
	var events []model.ReceiptEvent
	for _, l := range logs {
		if l == nil || len(l.Topics) == 0 {
			continue
		}

		var contract abi.ABI
		switch l.Address {
		case play:
			contract = playContractABI
		case charity:
			contract = charityContractABI
		default:
			continue
		}

		ev, err := contract.EventByID(l.Topics[0])
		if err != nil {
			continue
		}

		fields := make(map[string]interface{})
		if err := contract.UnpackIntoMap(fields, ev.Name, l.Data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ev.Name, err)
		}

		switch ev.Name {
		case model.EventPlayRequested:
			events = append(events, model.ReceiptEvent{
				Name:      ev.Name,
				PlayID:    bigString(asBig(fields["playId"])),
				RequestID: bigString(asBig(fields["requestId"])),
			})
		case model.EventPlayResult:
			events = append(events, model.ReceiptEvent{
				Name:         ev.Name,
				PlayID:       bigString(asBig(fields["playId"])),
				GoodReceived: fromBaseUnits(asBig(fields["goodReceivedAmount"]), goodDecimals),
			})
		}
	}
	return events, nil
}

func asBig(v interface{}) *big.Int {
	b, _ := v.(*big.Int)
	return b
}
