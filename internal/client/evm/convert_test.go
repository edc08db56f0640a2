package evm

import (
	"errors"
	"math/big"
	"testing"

	"xbit_backend/internal/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	playAddr    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	charityAddr = common.HexToAddress("0x0000000000000000000000000000000000000002")
	usdtAddr    = common.HexToAddress("0x0000000000000000000000000000000000000011")
	wbtcAddr    = common.HexToAddress("0x0000000000000000000000000000000000000015")
	player      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func testBook() tokenBook {
	return newTokenBook([]tokenRef{
		{Symbol: "USDT", Address: usdtAddr, Decimals: 6},
		{Symbol: "wbtc", Address: wbtcAddr, Decimals: 8},
		{Symbol: "exp", Address: common.HexToAddress("0x13"), Decimals: 18},
	})
}

func TestBaseUnits(t *testing.T) {
	v := toBaseUnits(decimal.RequireFromString("1.5"), 6)
	assert.Equal(t, "1500000", v.String())

	// Дробная часть ниже разрядности токена отбрасывается
	v = toBaseUnits(decimal.RequireFromString("0.0000001"), 6)
	assert.Equal(t, "0", v.String())

	d := fromBaseUnits(big.NewInt(250000000), 8)
	assert.True(t, decimal.RequireFromString("2.5").Equal(d))
	assert.True(t, fromBaseUnits(nil, 8).IsZero())

	assert.Equal(t, 78, len(maxUint256.String()))
}

func TestParseID(t *testing.T) {
	v, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	_, err = parseID("abc")
	require.ErrorIs(t, err, errBadID)
	_, err = parseID("-1")
	require.ErrorIs(t, err, errBadID)
}

func TestWrapCallErr(t *testing.T) {
	err := wrapCallErr("getPlayStatusById", errors.New("execution reverted: bad id"))
	require.ErrorIs(t, err, model.ErrLedgerRevert)

	err = wrapCallErr("getPlayStatusById", errors.New("connection reset"))
	require.Error(t, err)
	require.NotErrorIs(t, err, model.ErrLedgerRevert)
}

func TestTokenBook(t *testing.T) {
	book := testBook()

	ref, err := book.symbol("usdt")
	require.NoError(t, err)
	assert.Equal(t, usdtAddr, ref.Address)

	_, err = book.symbol("doge")
	require.Error(t, err)

	unknown := book.address(common.HexToAddress("0xff"))
	assert.Equal(t, int32(18), unknown.Decimals)
	assert.Equal(t, int32(8), book.decimalsOf("WBTC", 18))
}

func TestToStatus(t *testing.T) {
	book := testBook()

	pending := book.toStatus(playStatusTuple{
		Id:          big.NewInt(7),
		RequestId:   big.NewInt(99),
		Player:      common.HexToAddress("0xaa"),
		InputToken:  usdtAddr,
		InputAmount: big.NewInt(2_000_000),
		Repeats:     big.NewInt(3),
		OutputToken: wbtcAddr,
		TableId:     big.NewInt(2),
	})
	assert.Equal(t, "7", pending.PlayID)
	assert.Equal(t, "2", pending.TableID)
	assert.Equal(t, "usdt", pending.InputAsset)
	assert.Equal(t, "99", pending.RequestID)
	assert.Equal(t, common.HexToAddress("0xaa").Hex(), pending.Player)
	assert.False(t, pending.Fulfilled)
	assert.False(t, pending.OutputTotal.Valid)
	assert.True(t, decimal.NewFromInt(2).Equal(pending.InputAmount))
	assert.Equal(t, 3, pending.Repeats)
	assert.Equal(t, "wbtc", pending.OutputAsset)

	secondary, _ := new(big.Int).SetString("3000000000000000000", 10)
	done := book.toStatus(playStatusTuple{
		Fulfilled:         true,
		Id:                big.NewInt(7),
		InputToken:        usdtAddr,
		OutputToken:       wbtcAddr,
		RandomWord:        big.NewInt(255),
		OutcomeLevels:     []*big.Int{big.NewInt(0), big.NewInt(2)},
		OutputTotalAmount: big.NewInt(150_000_000),
		OutputXexpAmount:  secondary,
	})
	assert.Equal(t, []int{0, 2}, done.OutcomeLevels)
	require.True(t, done.OutputTotal.Valid)
	assert.True(t, decimal.RequireFromString("1.5").Equal(done.OutputTotal.Decimal))
	assert.True(t, decimal.NewFromInt(3).Equal(done.SecondaryTotal))
	assert.Equal(t, "0xff", done.RandomWord)
}

func TestDecodeEvents(t *testing.T) {
	requested := playContractABI.Events[model.EventPlayRequested]
	sharing := struct {
		Maintainer       common.Address
		MaintainerAmount *big.Int
		Claimer          common.Address
		ClaimerAmount    *big.Int
		Donation         common.Address
		DonationAmount   *big.Int
	}{MaintainerAmount: big.NewInt(0), ClaimerAmount: big.NewInt(0), DonationAmount: big.NewInt(0)}

	data, err := requested.Inputs.Pack(player, usdtAddr, big.NewInt(1_000_000), big.NewInt(1), wbtcAddr,
		big.NewInt(1), big.NewInt(12), big.NewInt(34), sharing)
	require.NoError(t, err)

	result := charityContractABI.Events[model.EventPlayResult]
	good, _ := new(big.Int).SetString("500000000000000000", 10)
	charityData, err := result.Inputs.Pack(player, big.NewInt(13), good)
	require.NoError(t, err)

	logs := []*types.Log{
		{Address: common.HexToAddress("0xdead"), Topics: []common.Hash{requested.ID}, Data: data},
		{Address: playAddr, Topics: []common.Hash{requested.ID}, Data: data},
		{Address: charityAddr, Topics: []common.Hash{result.ID}, Data: charityData},
		{Address: playAddr},
	}

	events, err := decodeEvents(logs, playAddr, charityAddr, 18)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, model.EventPlayRequested, events[0].Name)
	assert.Equal(t, "12", events[0].PlayID)
	assert.Equal(t, "34", events[0].RequestID)

	assert.Equal(t, model.EventPlayResult, events[1].Name)
	assert.Equal(t, "13", events[1].PlayID)
	assert.True(t, decimal.RequireFromString("0.5").Equal(events[1].GoodReceived))
}
