// Package evm реализует LedgerClient поверх JSON-RPC узла EVM-сети.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"xbit_backend/internal/client"
	"xbit_backend/internal/config"
	"xbit_backend/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrOwnerMismatch = errors.New("evm: play owner is not the signing account")

type Client struct {
	chainID     int64
	eth         *ethclient.Client
	key         *ecdsa.PrivateKey
	from        common.Address
	receiptPoll time.Duration
	log         *logrus.Entry

	contracts map[string]common.Address // роль -> адрес
	play      *bind.BoundContract
	charity   *bind.BoundContract
	tokens    tokenBook

	// txMu Транзакции подписываются по одной, чтобы nonce не пересекались
	txMu sync.Mutex
}

var _ client.LedgerClient = (*Client)(nil)

// Dial Подключается к узлу и проверяет, что chain id совпадает с каталогом
func Dial(ctx context.Context, network config.Network, cfg config.LedgerConfig, log *logrus.Entry) (*Client, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey(), "0x"))
	if err != nil {
		return nil, fmt.Errorf("evm: parse private key: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("evm: dial %s: %w", network.Name, err)
	}

	remote, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("evm: chain id of %s: %w", network.Name, err)
	}
	if remote.Int64() != network.ChainID {
		eth.Close()
		return nil, fmt.Errorf("evm: %s reports chain %s, expected %d", network.Name, remote, network.ChainID)
	}

	refs := make([]tokenRef, 0, len(network.Tokens))
	for sym, tok := range network.Tokens {
		refs = append(refs, tokenRef{Symbol: sym, Address: common.HexToAddress(tok.Address), Decimals: tok.Decimals})
	}

	contracts := map[string]common.Address{
		client.SpenderPlay:      common.HexToAddress(network.Contracts.Play),
		client.SpenderCharity:   common.HexToAddress(network.Contracts.Charity),
		client.SpenderSecondary: common.HexToAddress(network.Contracts.Secondary),
	}

	c := &Client{
		chainID:     network.ChainID,
		eth:         eth,
		key:         key,
		from:        crypto.PubkeyToAddress(key.PublicKey),
		receiptPoll: cfg.ReceiptPollInterval(),
		log:         log.WithField("chain_id", network.ChainID),
		contracts:   contracts,
		tokens:      newTokenBook(refs),
	}
	c.play = bind.NewBoundContract(contracts[client.SpenderPlay], playContractABI, eth, eth, eth)
	c.charity = bind.NewBoundContract(contracts[client.SpenderCharity], charityContractABI, eth, eth, eth)

	c.log.WithField("signer", c.from.Hex()).Info("ledger client connected")
	return c, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) ChainID() int64 {
	return c.chainID
}

// Signer Адрес, от имени которого уходят транзакции
func (c *Client) Signer() string {
	return c.from.Hex()
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, big.NewInt(c.chainID))
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

func (c *Client) transact(ctx context.Context, contract *bind.BoundContract, method string, params ...interface{}) (model.PendingTx, error) {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	opts, err := c.transactOpts(ctx)
	if err != nil {
		return model.PendingTx{}, err
	}
	tx, err := contract.Transact(opts, method, params...)
	if err != nil {
		return model.PendingTx{}, wrapCallErr(method, err)
	}

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"tx_hash": tx.Hash().Hex(),
	}).Debug("transaction sent")
	return model.PendingTx{Hash: tx.Hash().Hex()}, nil
}

func (c *Client) SubmitPlay(ctx context.Context, req model.PlayRequest) (model.PendingTx, error) {
	if !strings.EqualFold(req.Owner, c.from.Hex()) {
		return model.PendingTx{}, ErrOwnerMismatch
	}

	input, err := c.tokens.symbol(req.InputAsset)
	if err != nil {
		return model.PendingTx{}, err
	}
	output, err := c.tokens.symbol(req.OutputAsset)
	if err != nil {
		return model.PendingTx{}, err
	}
	tableID, err := parseID(req.Table.ID)
	if err != nil {
		return model.PendingTx{}, err
	}

	amount := toBaseUnits(req.Stake, input.Decimals)
	repeats := big.NewInt(int64(req.Repeats))

	if req.DonationCauseID != "" {
		causeID, err := parseID(req.DonationCauseID)
		if err != nil {
			return model.PendingTx{}, err
		}
		return c.transact(ctx, c.charity, "playWithToken", input.Address, amount, repeats, output.Address, tableID, causeID)
	}
	return c.transact(ctx, c.play, "play", c.from, input.Address, amount, repeats, output.Address, tableID)
}

// AwaitReceipt Ждет включения транзакции в блок. Упавшая транзакция - ErrLedgerRevert.
func (c *Client) AwaitReceipt(ctx context.Context, tx model.PendingTx) (*model.Receipt, error) {
	hash := common.HexToHash(tx.Hash)

	b := backoff.WithContext(backoff.NewConstantBackOff(c.receiptPoll), ctx)
	receipt, err := backoff.RetryWithData(func() (*types.Receipt, error) {
		r, err := c.eth.TransactionReceipt(ctx, hash)
		if err != nil {
			if !errors.Is(err, ethereum.NotFound) {
				c.log.WithError(err).WithField("tx_hash", tx.Hash).Warn("receipt query failed")
			}
			return nil, err
		}
		return r, nil
	}, b)
	if err != nil {
		return nil, fmt.Errorf("await receipt %s: %w", tx.Hash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s: %w", tx.Hash, model.ErrLedgerRevert)
	}

	goodDecimals := c.tokens.decimalsOf("good", 18)
	events, err := decodeEvents(receipt.Logs, c.contracts[client.SpenderPlay], c.contracts[client.SpenderCharity], goodDecimals)
	if err != nil {
		return nil, err
	}

	out := &model.Receipt{
		TxHash: receipt.TxHash.Hex(),
		Events: events,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return out, nil
}

func (c *Client) GetStatusByID(ctx context.Context, playID string) (*model.PlayStatus, error) {
	id, err := parseID(playID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrLedgerRevert, err)
	}

	var out []interface{}
	if err := c.play.Call(&bind.CallOpts{Context: ctx}, &out, "getPlayStatusById", id); err != nil {
		return nil, wrapCallErr("getPlayStatusById", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("getPlayStatusById: empty result")
	}

	tuple := *abi.ConvertType(out[0], new(playStatusTuple)).(*playStatusTuple)
	return c.tokens.toStatus(tuple), nil
}

func (c *Client) CurrentBlockHeight(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

func (c *Client) BlockTime(ctx context.Context, height uint64) (time.Time, error) {
	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return time.Time{}, fmt.Errorf("evm: header %d: %w", height, err)
	}
	return time.Unix(int64(header.Time), 0), nil
}

func (c *Client) ListPlayIDs(ctx context.Context, owner string) ([]string, error) {
	var out []interface{}
	if err := c.play.Call(&bind.CallOpts{Context: ctx}, &out, "listPlayIds", common.HexToAddress(owner)); err != nil {
		return nil, wrapCallErr("listPlayIds", err)
	}
	if len(out) == 0 {
		return nil, nil
	}

	raw := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	ids := make([]string, len(raw))
	for i, v := range raw {
		ids[i] = v.String()
	}
	return ids, nil
}

func (c *Client) token(asset string) (tokenRef, *bind.BoundContract, error) {
	ref, err := c.tokens.symbol(asset)
	if err != nil {
		return tokenRef{}, nil, err
	}
	return ref, bind.NewBoundContract(ref.Address, erc20ContractABI, c.eth, c.eth, c.eth), nil
}

func (c *Client) spender(role string) (common.Address, error) {
	addr, ok := c.contracts[role]
	if !ok {
		return common.Address{}, fmt.Errorf("evm: unknown spender %q", role)
	}
	return addr, nil
}

func (c *Client) balanceCall(ctx context.Context, asset, method string, params ...interface{}) (decimal.Decimal, error) {
	ref, erc20, err := c.token(asset)
	if err != nil {
		return decimal.Zero, err
	}

	var out []interface{}
	if err := erc20.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return decimal.Zero, wrapCallErr(method, err)
	}
	if len(out) == 0 {
		return decimal.Zero, nil
	}
	return fromBaseUnits(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int), ref.Decimals), nil
}

func (c *Client) Allowance(ctx context.Context, asset, owner, spender string) (decimal.Decimal, error) {
	to, err := c.spender(spender)
	if err != nil {
		return decimal.Zero, err
	}
	return c.balanceCall(ctx, asset, "allowance", common.HexToAddress(owner), to)
}

func (c *Client) Approve(ctx context.Context, asset, spender string, amount decimal.Decimal, unlimited bool) (model.PendingTx, error) {
	to, err := c.spender(spender)
	if err != nil {
		return model.PendingTx{}, err
	}
	ref, erc20, err := c.token(asset)
	if err != nil {
		return model.PendingTx{}, err
	}

	value := maxUint256
	if !unlimited {
		value = toBaseUnits(amount, ref.Decimals)
	}
	return c.transact(ctx, erc20, "approve", to, value)
}

// PoolSize Баланс выходного токена на основном контракте
func (c *Client) PoolSize(ctx context.Context, asset string) (decimal.Decimal, error) {
	return c.balanceCall(ctx, asset, "balanceOf", c.contracts[client.SpenderPlay])
}
