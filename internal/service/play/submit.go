package play

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"xbit_backend/internal/metrics"
	"xbit_backend/internal/model"
	"xbit_backend/internal/service/reward"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Сколько ждать записи в хранилище невалидных ID при падении игры
const markInvalidTimeout = 5 * time.Second

// Submit Проверяет allowance, создает запись в WaitingForTrx и запускает жизненный цикл.
// Ошибка preflight возвращается сразу, запись при этом не создается.
func (s *serv) Submit(ctx context.Context, intent model.PlayIntent) (model.PlayRecord, error) {
	if intent.ChainID == 0 {
		intent.ChainID = s.SelectedNetwork(intent.SessionID)
	}
	net, err := s.network(intent.ChainID)
	if err != nil {
		return model.PlayRecord{}, err
	}
	// Игры и одобрения подписывает аккаунт сети
	if !strings.EqualFold(intent.Owner, net.ledger.Signer()) {
		return model.PlayRecord{}, fmt.Errorf("%w: owner %s is not the relaying account", model.ErrInvalidIntent, intent.Owner)
	}

	table, err := s.tables.Get(ctx, intent.TableID)
	if err != nil {
		return model.PlayRecord{}, err
	}
	if err := s.validateTable(ctx, net, table); err != nil {
		return model.PlayRecord{}, err
	}

	reqs, err := s.preflight.Plan(intent)
	if err != nil {
		return model.PlayRecord{}, err
	}
	if err := s.preflight.Ensure(ctx, intent.ChainID, intent.Owner, reqs); err != nil {
		return model.PlayRecord{}, err
	}

	startBlock, err := net.ledger.CurrentBlockHeight(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to read block height")
	}

	now := time.Now()
	rec := model.PlayRecord{
		ID:              uuid.New(),
		Stage:           model.StageWaitingForTrx,
		StartTime:       now,
		StartBlock:      startBlock,
		ChainID:         intent.ChainID,
		Owner:           intent.Owner,
		SessionID:       intent.SessionID,
		TableID:         table.ID,
		Stake:           intent.Stake,
		Repeats:         intent.Repeats,
		Currency:        intent.Currency,
		DonationCauseID: intent.DonationCauseID,
		UpdatedAt:       now,
	}
	s.plays.Upsert(rec)
	metrics.PlayStarted(rec.ChainID, "submit")

	s.wg.Add(1)
	go s.run(rec, table, net)

	return rec.Clone(), nil
}

// validateTable Повторная проверка вероятности на свежих пуле и цене.
// Если чего-то нет, проверка откладывается: структурно таблица уже проверена при загрузке.
func (s *serv) validateTable(ctx context.Context, net *network, table model.ProbabilityTable) error {
	price, ok := s.prices.Price(table.OutputAsset)
	if !ok {
		return nil
	}
	pool, err := net.ledger.PoolSize(ctx, table.OutputAsset)
	if err != nil {
		s.log.WithError(err).WithField("asset", table.OutputAsset).Warn("failed to read pool size")
		return nil
	}

	err = reward.ValidateTableAt(table, pool, price)
	if errors.Is(err, model.ErrStatsUnavailable) {
		return nil
	}
	return err
}

func (s *serv) recordLog(rec model.PlayRecord) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"record_id": rec.ID.String(),
		"chain_id":  rec.ChainID,
		"play_id":   rec.PlayID,
		"tx_hash":   rec.TransactionHash,
	})
}

// replace Замена записи в коллекции целиком
func (s *serv) replace(rec *model.PlayRecord, stage model.Stage) {
	rec.Stage = stage
	rec.UpdatedAt = time.Now()
	s.plays.Upsert(*rec)
}

// run Жизненный цикл новой игры: WaitingForTrx -> WaitingForReceipt -> RequestingRandomness -> WaitingForResult
func (s *serv) run(rec model.PlayRecord, table model.ProbabilityTable, net *network) {
	defer s.wg.Done()
	ctx := s.ctx

	tx, err := net.ledger.SubmitPlay(ctx, model.PlayRequest{
		Owner:           rec.Owner,
		InputAsset:      strings.ToLower(rec.Currency),
		Stake:           rec.Stake,
		Repeats:         rec.Repeats,
		OutputAsset:     table.OutputAsset,
		Table:           table,
		DonationCauseID: rec.DonationCauseID,
	})
	if err != nil {
		if s.abandoned(rec) {
			return
		}
		s.fail(rec, model.NewPlayError(model.KindSubmission, "play.SubmitPlay", err))
		return
	}

	rec.TransactionHash = tx.Hash
	s.replace(&rec, model.StageWaitingForReceipt)

	receipt, err := net.ledger.AwaitReceipt(ctx, tx)
	if err != nil {
		if s.abandoned(rec) {
			return
		}
		s.fail(rec, model.NewPlayError(model.KindSubmission, "play.AwaitReceipt", err))
		return
	}

	if err := s.inspectReceipt(ctx, net, &rec, receipt); err != nil {
		if s.abandoned(rec) {
			return
		}
		s.fail(rec, err)
		return
	}
	s.replace(&rec, model.StageRequestingRandomness)

	if err := s.pacer.Advance(ctx, rec); err != nil {
		s.abandoned(rec)
		return
	}
	s.replace(&rec, model.StageWaitingForResult)

	s.settle(ctx, net, rec, table)
}

// inspectReceipt Обычная игра ждет PlayRequested{playId, requestId}.
// Игра с пожертвованием ждет PlayResult{playId, goodReceivedAmount}, requestId дочитывается по статусу.
func (s *serv) inspectReceipt(ctx context.Context, net *network, rec *model.PlayRecord, receipt *model.Receipt) error {
	const op = "play.inspectReceipt"

	if !rec.HasCause() {
		ev, ok := receipt.Event(model.EventPlayRequested)
		if !ok || ev.PlayID == "" {
			return model.NewPlayError(model.KindReceiptMismatch, op,
				fmt.Errorf("receipt %s has no %s event", receipt.TxHash, model.EventPlayRequested))
		}
		rec.PlayID = ev.PlayID
		rec.RequestID = ev.RequestID
		return nil
	}

	ev, ok := receipt.Event(model.EventPlayResult)
	if !ok || ev.PlayID == "" {
		return model.NewPlayError(model.KindReceiptMismatch, op,
			fmt.Errorf("receipt %s has no %s event", receipt.TxHash, model.EventPlayResult))
	}
	rec.PlayID = ev.PlayID
	rec.CauseReward = ev.GoodReceived

	status, err := net.supervisor.Status(ctx, rec.PlayID)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return model.NewPlayError(model.KindReceiptMismatch, op,
			fmt.Errorf("request id of play %s: %w", rec.PlayID, err))
	}
	rec.RequestID = status.RequestID
	return nil
}

// settle WaitingForResult -> Fulfilled | Failed
func (s *serv) settle(ctx context.Context, net *network, rec model.PlayRecord, table model.ProbabilityTable) {
	status, err := net.supervisor.Await(ctx, rec.PlayID)
	if err != nil {
		// Остановка процесса: игра останется в WaitingForResult и восстановится позже
		if s.abandoned(rec) {
			return
		}
		if _, ok := model.KindOf(err); !ok {
			err = model.NewPlayError(model.KindPollTimeout, "play.settle", err)
		}
		s.fail(rec, err)
		return
	}

	rec.Randomness = status.RandomWord
	rewards, err := s.resolve(ctx, net, rec, table, status)
	if err != nil {
		s.fail(rec, err)
		return
	}

	rec.Rewards = rewards
	s.replace(&rec, model.StageFulfilled)
	metrics.PlayFinished(rec.ChainID, rec.Stage, "", time.Since(rec.StartTime))
	s.recordLog(rec).WithField("rewards", len(rewards)).Info("play fulfilled")

	if err := s.pending.Forget(context.WithoutCancel(ctx), rec.ChainID, rec.PlayID); err != nil {
		s.recordLog(rec).WithError(err).Warn("failed to forget pending play")
	}

	s.congratulate(rec)
	s.scheduleFade()
}

func (s *serv) resolve(ctx context.Context, net *network, rec model.PlayRecord, table model.ProbabilityTable, status *model.PlayStatus) ([]model.Reward, error) {
	in := reward.ResolveInput{
		Table:          table,
		OutcomeLevels:  status.OutcomeLevels,
		Stake:          rec.Stake,
		OutputTotal:    status.OutputTotal,
		SecondaryTotal: status.SecondaryTotal,
	}

	if price, ok := s.prices.Price(rec.Currency); ok {
		in.StakePrice = price
	}
	if price, ok := s.prices.Price(table.OutputAsset); ok {
		in.OutputPrice = decimal.NewNullDecimal(price)
	}
	// Пул нужен, только если контракт не сообщил итоговую выплату
	if !status.OutputTotal.Valid {
		pool, err := net.ledger.PoolSize(ctx, table.OutputAsset)
		if err != nil {
			s.recordLog(rec).WithError(err).Warn("failed to read pool size")
		} else {
			in.PoolSize = decimal.NewNullDecimal(pool)
		}
	}
	if rec.HasCause() && !rec.Resumed {
		in.CauseReward = decimal.NewNullDecimal(rec.CauseReward)
	}

	return reward.Resolve(in)
}

// fail Переводит игру в Failed. playId, если он известен, попадает в список невалидных ровно один раз.
func (s *serv) fail(rec model.PlayRecord, err error) {
	kind, ok := model.KindOf(err)
	if !ok {
		kind = model.KindSubmission
	}

	rec.Failure = &model.Failure{Kind: kind, Message: model.UserMessage(kind)}
	s.replace(&rec, model.StageFailed)
	metrics.PlayFinished(rec.ChainID, rec.Stage, kind, time.Since(rec.StartTime))

	log := s.recordLog(rec).WithError(err).WithField("kind", kind)
	switch kind {
	case model.KindReceiptMismatch:
		log.Error("receipt protocol mismatch")
	case model.KindResolution:
		log.Error("resolution invariant violated")
	default:
		log.Warn("play failed")
	}

	if rec.PlayID != "" {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), markInvalidTimeout)
		defer cancel()
		if err := s.invalid.MarkInvalid(ctx, rec.ChainID, rec.PlayID); err != nil {
			s.recordLog(rec).WithError(err).Error("failed to mark play invalid")
		}
		if err := s.pending.Forget(ctx, rec.ChainID, rec.PlayID); err != nil {
			s.recordLog(rec).WithError(err).Warn("failed to forget pending play")
		}
	}

	s.scheduleFade()
}

// abandoned true, если сервис останавливается. Запись не трогается.
func (s *serv) abandoned(rec model.PlayRecord) bool {
	if s.ctx.Err() == nil {
		return false
	}
	s.recordLog(rec).WithField("stage", rec.Stage.String()).Info("lifecycle stopped on shutdown")
	return true
}
