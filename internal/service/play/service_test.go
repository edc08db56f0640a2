package play

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"xbit_backend/internal/client"
	"xbit_backend/internal/client/fake"
	"xbit_backend/internal/model"
	"xbit_backend/internal/repository"
	"xbit_backend/internal/repository/invalid_play_repo"
	"xbit_backend/internal/repository/pending_play_repo"
	"xbit_backend/internal/repository/play_state_repo"
	"xbit_backend/internal/repository/table_repo"
	"xbit_backend/internal/service"
	"xbit_backend/internal/service/poller"
	"xbit_backend/internal/service/preflight"
	"xbit_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chainA  = int64(11155111)
	chainB  = int64(56)
	owner   = "0xowner"
	session = "session-1"
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

type stubPrices map[string]decimal.Decimal

func (p stubPrices) Price(asset string) (decimal.Decimal, bool) {
	v, ok := p[strings.ToLower(asset)]
	return v, ok
}

func (p stubPrices) Stale(string, time.Duration) bool { return false }
func (p stubPrices) Refresh(context.Context) error    { return nil }
func (p stubPrices) Run(context.Context)              {}

// recordingInvalid Считает вызовы MarkInvalid по каждому ID
type recordingInvalid struct {
	repository.InvalidPlayRepository

	mu    sync.Mutex
	marks map[string]int
}

func (r *recordingInvalid) MarkInvalid(ctx context.Context, chainID int64, ids ...string) error {
	r.mu.Lock()
	for _, id := range ids {
		r.marks[id]++
	}
	r.mu.Unlock()
	return r.InvalidPlayRepository.MarkInvalid(ctx, chainID, ids...)
}

func (r *recordingInvalid) Marks(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.marks[id]
}

type harness struct {
	svc     *serv
	ledgerA *fake.Ledger
	ledgerB *fake.Ledger
	plays   *play_state_repo.StateRepo
	invalid *recordingInvalid
	pending repository.PendingPlayRepository
}

func testTable() model.ProbabilityTable {
	return model.ProbabilityTable{
		ID:          "1",
		Name:        "double",
		OutputAsset: "wbtc",
		Tiers: []model.RewardTier{
			{Basis: model.BasisInput, Expectation: 100_000, Reward: 2_000_000},
		},
	}
}

func newHarness(t *testing.T, mutate func(cfg *Config)) *harness {
	t.Helper()
	return newHarnessWithPrices(t, stubPrices{"usdt": decimal.NewFromInt(1), "usdc": decimal.NewFromInt(1), "wbtc": decimal.NewFromInt(1)}, mutate)
}

func newHarnessWithPrices(t *testing.T, prices service.PriceService, mutate func(cfg *Config)) *harness {
	t.Helper()

	tables, err := table_repo.NewTableRepository([]model.ProbabilityTable{testTable()})
	require.NoError(t, err)

	h := &harness{
		ledgerA: fake.NewLedger(chainA),
		ledgerB: fake.NewLedger(chainB),
		plays:   play_state_repo.NewPlayStateRepository(),
		invalid: &recordingInvalid{
			InvalidPlayRepository: invalid_play_repo.NewMemoryInvalidPlayRepository(),
			marks:                 make(map[string]int),
		},
		pending: pending_play_repo.NewMemoryPendingPlayRepository(),
	}
	h.ledgerA.SetSigner(owner)
	h.ledgerB.SetSigner(owner)

	log := logger.NewDiscard().Component("play")
	ledgers := map[int64]client.LedgerClient{chainA: h.ledgerA, chainB: h.ledgerB}
	pre := preflight.NewPreflightService(ledgers, preflight.Config{
		ApproveCeiling:     decimal.NewFromInt(1000),
		SecondaryThreshold: decimal.NewFromInt(1_000_000),
	}, log)

	cfg := Config{
		Poll: poller.Config{
			Interval:   5 * time.Millisecond,
			Timeout:    time.Second,
			Attempts:   2,
			RetryDelay: time.Millisecond,
		},
		DisplayCapacity: 10,
		FadeAfter:       time.Hour,
		ResumeExpiry:    5 * time.Minute,
		DefaultChainID:  chainA,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	svc, err := NewPlayService(Deps{
		Networks: map[int64]Network{
			chainA: {Ledger: h.ledgerA},
			chainB: {Ledger: h.ledgerB},
		},
		Preflight: pre,
		Tables:    tables,
		Prices:    prices,
		Plays:     h.plays,
		Invalid:   h.invalid,
		Pending:   h.pending,
	}, cfg, log)
	require.NoError(t, err)

	h.svc = svc.(*serv)
	t.Cleanup(h.svc.Close)
	return h
}

func plainIntent(chainID int64) model.PlayIntent {
	return model.PlayIntent{
		Owner:     owner,
		SessionID: session,
		ChainID:   chainID,
		TableID:   "1",
		Stake:     decimal.NewFromInt(1),
		Repeats:   1,
		Currency:  model.CurrencyUSDT,
	}
}

func (h *harness) waitStage(t *testing.T, id uuid.UUID, stage model.Stage) model.PlayRecord {
	t.Helper()
	var rec model.PlayRecord
	require.Eventually(t, func() bool {
		var ok bool
		rec, ok = h.plays.Get(id)
		return ok && rec.Stage == stage
	}, waitFor, tick, "record never reached %s", stage)
	return rec
}

func congratulations(events <-chan model.PlayEvent) []model.PlayRecord {
	var out []model.PlayRecord
	for {
		select {
		case ev := <-events:
			if ev.Type == model.EventCongratulation {
				out = append(out, ev.Record)
			}
		default:
			return out
		}
	}
}

func TestSubmitHappyPath(t *testing.T) {
	h := newHarness(t, nil)
	events, cancel := h.svc.Subscribe(256)
	defer cancel()

	rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	require.NoError(t, err)
	assert.Equal(t, model.StageWaitingForTrx, rec.Stage)
	assert.Equal(t, uint64(101), rec.StartBlock) // после квитанции одобрения

	waiting := h.waitStage(t, rec.ID, model.StageWaitingForResult)
	assert.Equal(t, "1", waiting.PlayID)
	assert.Equal(t, "req-1", waiting.RequestID)
	assert.NotEmpty(t, waiting.TransactionHash)

	h.ledgerA.Fulfill("1", []int{0}, decimal.NewFromInt(2), decimal.Zero)
	done := h.waitStage(t, rec.ID, model.StageFulfilled)

	require.Len(t, done.Rewards, 1)
	assert.Equal(t, model.UnitOutput, done.Rewards[0].Unit)
	assert.True(t, decimal.NewFromInt(2).Equal(done.Rewards[0].Value))
	assert.Equal(t, int64(2), done.Rewards[0].Multiplier)
	assert.Equal(t, "0x2a", done.Randomness)

	require.Eventually(t, func() bool { return len(congratulations(events)) == 1 }, waitFor, tick)
	assert.Zero(t, h.invalid.Marks("1"))

	found, ok := h.plays.FindByKey(done.TransactionHash)
	require.True(t, ok)
	assert.Equal(t, rec.ID, found.ID)
}

func TestSubmitStagesInOrder(t *testing.T) {
	h := newHarness(t, nil)
	events, cancel := h.svc.Subscribe(256)
	defer cancel()

	rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	require.NoError(t, err)
	h.waitStage(t, rec.ID, model.StageWaitingForResult)
	h.ledgerA.Fulfill("1", []int{1}, decimal.Zero, decimal.NewFromInt(4))
	h.waitStage(t, rec.ID, model.StageFulfilled)

	var stages []model.Stage
	for len(events) > 0 {
		ev := <-events
		if ev.Type == model.EventUpserted && ev.Record.ID == rec.ID {
			stages = append(stages, ev.Record.Stage)
		}
	}
	assert.Equal(t, []model.Stage{
		model.StageWaitingForTrx,
		model.StageWaitingForReceipt,
		model.StageRequestingRandomness,
		model.StageWaitingForResult,
		model.StageFulfilled,
	}, stages)
}

func TestPollTimeoutMarksInvalidOnce(t *testing.T) {
	h := newHarness(t, func(cfg *Config) { cfg.Poll.Timeout = 50 * time.Millisecond })

	rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	require.NoError(t, err)

	failed := h.waitStage(t, rec.ID, model.StageFailed)
	require.NotNil(t, failed.Failure)
	assert.Equal(t, model.KindPollTimeout, failed.Failure.Kind)
	assert.Equal(t, model.UserMessage(model.KindPollTimeout), failed.Failure.Message)

	calls := h.ledgerA.StatusCalls("1")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, h.ledgerA.StatusCalls("1"))
	assert.Equal(t, 1, h.invalid.Marks("1"))

	valid, err := h.invalid.ListKnownValid(context.Background(), chainA, []string{"1"})
	require.NoError(t, err)
	assert.Empty(t, valid)
}

func TestNetworkSwitchKeepsPolling(t *testing.T) {
	h := newHarness(t, nil)
	events, cancel := h.svc.Subscribe(256)
	defer cancel()

	rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	require.NoError(t, err)
	h.waitStage(t, rec.ID, model.StageWaitingForResult)

	require.NoError(t, h.svc.SelectNetwork(session, chainB))
	assert.Equal(t, chainB, h.svc.SelectedNetwork(session))
	assert.Empty(t, h.svc.ListActivePlays(session, 0))
	assert.Empty(t, h.svc.ListActivePlays(session, chainB))
	require.Len(t, h.svc.ListActivePlays(session, chainA), 1)

	calls := h.ledgerA.StatusCalls("1")
	require.Eventually(t, func() bool { return h.ledgerA.StatusCalls("1") > calls+2 }, waitFor, tick)

	h.ledgerA.Fulfill("1", []int{0}, decimal.NewFromInt(2), decimal.Zero)
	h.waitStage(t, rec.ID, model.StageFulfilled)

	// Игра другой сети не поздравляется
	assert.Empty(t, congratulations(events))
	assert.Zero(t, h.ledgerB.StatusCalls("1"))

	require.ErrorIs(t, h.svc.SelectNetwork(session, 1), model.ErrUnknownNetwork)
}

func TestReceiptMismatch(t *testing.T) {
	h := newHarness(t, nil)
	h.ledgerA.DropEvents = true

	rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	require.NoError(t, err)

	failed := h.waitStage(t, rec.ID, model.StageFailed)
	assert.Equal(t, model.KindReceiptMismatch, failed.Failure.Kind)
	assert.Empty(t, failed.PlayID)
	assert.NotEmpty(t, failed.TransactionHash)
}

func TestSubmissionRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.ledgerA.SubmitErr = errors.New("rpc: user denied transaction signature")

	rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	require.NoError(t, err)

	failed := h.waitStage(t, rec.ID, model.StageFailed)
	assert.Equal(t, model.KindSubmission, failed.Failure.Kind)
	assert.NotContains(t, failed.Failure.Message, "rpc")
	assert.Empty(t, failed.TransactionHash)
}

func TestPreflightFailureCreatesNoRecord(t *testing.T) {
	h := newHarness(t, nil)
	h.ledgerA.ApproveErr = errors.New("approval rejected")

	_, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	kind, ok := model.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.KindPreflight, kind)

	assert.Empty(t, h.plays.List(0))
	assert.Empty(t, h.ledgerA.Submitted())
}

func TestSubmitRejectsUnknownInputs(t *testing.T) {
	h := newHarness(t, nil)

	intent := plainIntent(chainA)
	intent.TableID = "missing"
	_, err := h.svc.Submit(context.Background(), intent)
	require.ErrorIs(t, err, model.ErrTableNotFound)

	_, err = h.svc.Submit(context.Background(), plainIntent(1))
	require.ErrorIs(t, err, model.ErrUnknownNetwork)

	intent = plainIntent(chainA)
	intent.Repeats = 0
	_, err = h.svc.Submit(context.Background(), intent)
	require.ErrorIs(t, err, model.ErrInvalidIntent)

	assert.Empty(t, h.plays.List(0))
}

func TestCausePlayYieldsGood(t *testing.T) {
	h := newHarness(t, nil)
	h.ledgerA.GoodPerRepeat = decimal.RequireFromString("0.5")

	intent := plainIntent(chainA)
	intent.DonationCauseID = "9"
	rec, err := h.svc.Submit(context.Background(), intent)
	require.NoError(t, err)

	waiting := h.waitStage(t, rec.ID, model.StageWaitingForResult)
	assert.Equal(t, "req-1", waiting.RequestID)
	assert.True(t, decimal.RequireFromString("0.5").Equal(waiting.CauseReward))

	h.ledgerA.Fulfill("1", []int{1}, decimal.Zero, decimal.NewFromInt(7))
	done := h.waitStage(t, rec.ID, model.StageFulfilled)

	require.Len(t, done.Rewards, 1)
	assert.Equal(t, model.UnitGood, done.Rewards[0].Unit)
	assert.True(t, decimal.RequireFromString("0.5").Equal(done.Rewards[0].Value))

	approvals := h.ledgerA.Approvals()
	require.Len(t, approvals, 2)
	assert.Equal(t, client.SpenderCharity, approvals[0].Spender)
	assert.Equal(t, client.AssetSecondary, approvals[1].Asset)
}

func TestReconcile(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ledgerA.SetPlayIDs(owner, "5", "6", "7", "8")
	require.NoError(t, h.invalid.InvalidPlayRepository.MarkInvalid(ctx, chainA, "7"))
	h.ledgerA.SetStatus(model.PlayStatus{PlayID: "5", Fulfilled: true, TableID: "1"})
	pendingStatus := func(id string) model.PlayStatus {
		return model.PlayStatus{
			PlayID:      id,
			RequestID:   "req-" + id,
			Player:      owner,
			TableID:     "1",
			InputAsset:  "usdt",
			InputAmount: decimal.NewFromInt(1),
			Repeats:     1,
		}
	}
	h.ledgerA.SetStatus(pendingStatus("6"))
	h.ledgerA.SetStatus(pendingStatus("8"))
	_, err := h.pending.Touch(ctx, chainA, "8", time.Now().Add(-10*time.Minute))
	require.NoError(t, err)

	resumed, err := h.svc.Reconcile(ctx, chainA, owner, session)
	require.NoError(t, err)
	require.Len(t, resumed, 1)

	rec := resumed[0]
	assert.Equal(t, "6", rec.PlayID)
	assert.Equal(t, model.StageWaitingForResult, rec.Stage)
	assert.True(t, rec.Resumed)
	assert.Equal(t, model.CurrencyUSDT, rec.Currency)

	assert.Equal(t, 1, h.invalid.Marks("5"))
	assert.Equal(t, 1, h.invalid.Marks("8"))
	assert.Zero(t, h.invalid.Marks("6"))

	// Повторная сверка не создает вторую запись для уже отслеживаемой игры
	again, err := h.svc.Reconcile(ctx, chainA, owner, session)
	require.NoError(t, err)
	assert.Empty(t, again)

	h.ledgerA.Fulfill("6", []int{1}, decimal.Zero, decimal.NewFromInt(3))
	done := h.waitStage(t, rec.ID, model.StageFulfilled)
	require.Len(t, done.Rewards, 1)
	assert.Equal(t, model.UnitExp, done.Rewards[0].Unit)
	assert.True(t, decimal.NewFromInt(3).Equal(done.Rewards[0].Value))
}

func TestResumePendingPlaysSkipsInvalid(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ledgerA.SetStatus(model.PlayStatus{PlayID: "3", Player: owner, TableID: "1", InputAsset: "usdc", InputAmount: decimal.NewFromInt(2), Repeats: 2})
	h.ledgerA.SetStatus(model.PlayStatus{PlayID: "4", Player: owner, TableID: "unknown", InputAsset: "usdc", InputAmount: decimal.NewFromInt(2), Repeats: 1})
	require.NoError(t, h.invalid.InvalidPlayRepository.MarkInvalid(ctx, chainA, "2"))

	resumed, err := h.svc.ResumePendingPlays(ctx, chainA, owner, session, []string{"2", "3", "4"})
	require.NoError(t, err)
	require.Len(t, resumed, 1)
	assert.Equal(t, "3", resumed[0].PlayID)
	assert.Equal(t, 2, resumed[0].Repeats)

	// Игра с неизвестной таблицей больше не восстанавливается
	assert.Equal(t, 1, h.invalid.Marks("4"))
	assert.Len(t, h.svc.ListActivePlays(session, chainA), 1)
}

func TestDismiss(t *testing.T) {
	h := newHarness(t, nil)

	require.ErrorIs(t, h.svc.Dismiss(owner, "nope"), model.ErrPlayNotFound)

	rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	require.NoError(t, err)
	waiting := h.waitStage(t, rec.ID, model.StageWaitingForResult)
	require.ErrorIs(t, h.svc.Dismiss(owner, waiting.TransactionHash), model.ErrNotTerminal)

	h.ledgerA.Fulfill("1", []int{0}, decimal.NewFromInt(2), decimal.Zero)
	done := h.waitStage(t, rec.ID, model.StageFulfilled)

	// Чужой кошелек не может убрать игру
	require.ErrorIs(t, h.svc.Dismiss("0xstranger", done.TransactionHash), model.ErrPlayNotFound)
	require.ErrorIs(t, h.svc.Dismiss("0xstranger", done.ID.String()), model.ErrPlayNotFound)
	require.Len(t, h.svc.ListActivePlays(session, chainA), 1)

	require.NoError(t, h.svc.Dismiss(strings.ToUpper(owner), done.TransactionHash))
	assert.Empty(t, h.svc.ListActivePlays(session, chainA))
}

func TestFadeTrimsOldestTerminal(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.DisplayCapacity = 1
		cfg.FadeAfter = 10 * time.Millisecond
	})
	h.ledgerA.SubmitErr = errors.New("rejected")

	var last model.PlayRecord
	for i := 0; i < 3; i++ {
		rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
		require.NoError(t, err)
		last = rec
		time.Sleep(time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(h.svc.ListActivePlays(session, chainA)) == 1 }, waitFor, tick)
	remaining := h.svc.ListActivePlays(session, chainA)[0]
	assert.Equal(t, last.ID, remaining.ID)
}

func TestCongratulationGate(t *testing.T) {
	h := newHarness(t, nil)
	events, cancel := h.svc.Subscribe(256)
	defer cancel()

	finish := func() model.PlayRecord {
		rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
		require.NoError(t, err)
		waiting := h.waitStage(t, rec.ID, model.StageWaitingForResult)
		h.ledgerA.Fulfill(waiting.PlayID, []int{0}, decimal.NewFromInt(2), decimal.Zero)
		return h.waitStage(t, rec.ID, model.StageFulfilled)
	}

	first := finish()
	require.Eventually(t, func() bool {
		got := congratulations(events)
		return len(got) == 1 && got[0].ID == first.ID
	}, waitFor, tick)

	// Результат первой игры еще показан
	finish()
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, congratulations(events))

	h.svc.AcknowledgeCongratulation(session)
	third := finish()
	require.Eventually(t, func() bool {
		got := congratulations(events)
		return len(got) == 1 && got[0].ID == third.ID
	}, waitFor, tick)
}

func TestSettlesWithoutStakePrice(t *testing.T) {
	h := newHarnessWithPrices(t, stubPrices{"wbtc": decimal.NewFromInt(1)}, nil)

	rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
	require.NoError(t, err)
	h.waitStage(t, rec.ID, model.StageWaitingForResult)

	h.ledgerA.Fulfill("1", []int{1}, decimal.Zero, decimal.NewFromInt(4))
	done := h.waitStage(t, rec.ID, model.StageFulfilled)

	require.Len(t, done.Rewards, 1)
	assert.Equal(t, model.UnitExp, done.Rewards[0].Unit)
	assert.True(t, decimal.NewFromInt(4).Equal(done.Rewards[0].Value))
	assert.Zero(t, h.invalid.Marks("1"))
}

func TestNetworkSelectionIsPerSession(t *testing.T) {
	h := newHarness(t, nil)
	events, cancel := h.svc.Subscribe(256)
	defer cancel()

	const other = "session-2"
	require.NoError(t, h.svc.SelectNetwork(other, chainB))
	assert.Equal(t, chainB, h.svc.SelectedNetwork(other))
	assert.Equal(t, chainA, h.svc.SelectedNetwork(session))

	rec, err := h.svc.Submit(context.Background(), plainIntent(0))
	require.NoError(t, err)
	assert.Equal(t, chainA, rec.ChainID)

	h.waitStage(t, rec.ID, model.StageWaitingForResult)
	require.Len(t, h.svc.ListActivePlays(session, 0), 1)
	assert.Empty(t, h.svc.ListActivePlays(other, 0))

	h.ledgerA.Fulfill("1", []int{0}, decimal.NewFromInt(2), decimal.Zero)
	h.waitStage(t, rec.ID, model.StageFulfilled)

	// Выбор другой сессии не мешает поздравлению
	require.Eventually(t, func() bool {
		got := congratulations(events)
		return len(got) == 1 && got[0].ID == rec.ID
	}, waitFor, tick)
}

func TestSubmitRejectsForeignOwner(t *testing.T) {
	h := newHarness(t, nil)

	intent := plainIntent(chainA)
	intent.Owner = "0xstranger"
	_, err := h.svc.Submit(context.Background(), intent)
	require.ErrorIs(t, err, model.ErrInvalidIntent)

	assert.Empty(t, h.ledgerA.Approvals())
	assert.Empty(t, h.ledgerA.Submitted())
	assert.Empty(t, h.plays.List(0))
}

func TestResumeSkipsForeignPlays(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ledgerA.SetStatus(model.PlayStatus{PlayID: "3", Player: "0xstranger", TableID: "1", InputAsset: "usdt", InputAmount: decimal.NewFromInt(1), Repeats: 1})
	h.ledgerA.SetStatus(model.PlayStatus{PlayID: "4", Player: "0xOWNER", BlockNumber: 250, TableID: "1", InputAsset: "usdt", InputAmount: decimal.NewFromInt(1), Repeats: 1})

	resumed, err := h.svc.ResumePendingPlays(ctx, chainA, owner, session, []string{"3", "4"})
	require.NoError(t, err)
	require.Len(t, resumed, 1)
	assert.Equal(t, "4", resumed[0].PlayID)
	assert.Equal(t, owner, resumed[0].Owner)

	// Время старта берется из блока игры
	blockTime, err := h.ledgerA.BlockTime(ctx, 250)
	require.NoError(t, err)
	assert.True(t, blockTime.Equal(resumed[0].StartTime))
	assert.Equal(t, uint64(250), resumed[0].StartBlock)

	// Чужая игра остается валидной для своего владельца
	assert.Zero(t, h.invalid.Marks("3"))
	valid, err := h.invalid.ListKnownValid(ctx, chainA, []string{"3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, valid)
	_, tracked := h.plays.FindByPlayID(chainA, "3")
	assert.False(t, tracked)
}

func TestCausePlayStatusUnreadable(t *testing.T) {
	h := newHarness(t, nil)
	h.ledgerA.StatusFn = func(int, string) (*model.PlayStatus, error) {
		return nil, errors.New("rpc: connection refused")
	}

	intent := plainIntent(chainA)
	intent.DonationCauseID = "9"
	rec, err := h.svc.Submit(context.Background(), intent)
	require.NoError(t, err)

	failed := h.waitStage(t, rec.ID, model.StageFailed)
	assert.Equal(t, model.KindReceiptMismatch, failed.Failure.Kind)
	assert.Equal(t, "1", failed.PlayID)
	require.Eventually(t, func() bool { return h.invalid.Marks("1") == 1 }, waitFor, tick)
}

func TestRemovedPlaysReleaseCongratulationState(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.DisplayCapacity = 1
		cfg.FadeAfter = 10 * time.Millisecond
	})

	congratulated := func(id uuid.UUID) bool {
		h.svc.mu.Lock()
		defer h.svc.mu.Unlock()
		_, ok := h.svc.congratulated[id]
		return ok
	}
	finish := func() model.PlayRecord {
		rec, err := h.svc.Submit(context.Background(), plainIntent(chainA))
		require.NoError(t, err)
		waiting := h.waitStage(t, rec.ID, model.StageWaitingForResult)
		h.ledgerA.Fulfill(waiting.PlayID, []int{0}, decimal.NewFromInt(2), decimal.Zero)
		done := h.waitStage(t, rec.ID, model.StageFulfilled)
		require.Eventually(t, func() bool { return congratulated(done.ID) }, waitFor, tick)
		return done
	}

	first := finish()
	h.svc.AcknowledgeCongratulation(session)
	second := finish()

	// Первая игра ушла по fade вместе с отметкой о поздравлении
	require.Eventually(t, func() bool { return !congratulated(first.ID) }, waitFor, tick)
	require.Len(t, h.svc.ListActivePlays(session, chainA), 1)

	require.NoError(t, h.svc.Dismiss(owner, second.TransactionHash))

	h.svc.mu.Lock()
	defer h.svc.mu.Unlock()
	assert.Empty(t, h.svc.congratulated)
	assert.Empty(t, h.svc.displayed)
}
