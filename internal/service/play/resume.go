package play

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xbit_backend/internal/metrics"
	"xbit_backend/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ResumePendingPlays Продолжает опрос игр, оставшихся незавершенными после перезапуска.
// Каждая игра входит сразу в WaitingForResult. Уже отслеживаемые игры пропускаются.
func (s *serv) ResumePendingPlays(ctx context.Context, chainID int64, owner, sessionID string, playIDs []string) ([]model.PlayRecord, error) {
	net, err := s.network(chainID)
	if err != nil {
		return nil, err
	}

	valid, err := s.invalid.ListKnownValid(ctx, chainID, playIDs)
	if err != nil {
		return nil, fmt.Errorf("list known valid plays: %w", err)
	}

	statuses := make(map[string]*model.PlayStatus, len(valid))
	for _, id := range valid {
		if _, tracked := s.plays.FindByPlayID(chainID, id); tracked {
			continue
		}
		status, err := net.supervisor.Status(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.WithError(err).WithField("play_id", id).Warn("failed to read status of pending play")
			continue
		}
		statuses[id] = status
	}

	return s.resume(ctx, net, chainID, owner, sessionID, valid, statuses), nil
}

// Reconcile Сверка игр владельца с контрактом:
// исполненные и слишком старые игры помечаются невалидными, остальные восстанавливаются.
func (s *serv) Reconcile(ctx context.Context, chainID int64, owner, sessionID string) ([]model.PlayRecord, error) {
	net, err := s.network(chainID)
	if err != nil {
		return nil, err
	}

	ids, err := net.ledger.ListPlayIDs(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list play ids: %w", err)
	}
	valid, err := s.invalid.ListKnownValid(ctx, chainID, ids)
	if err != nil {
		return nil, fmt.Errorf("list known valid plays: %w", err)
	}

	// Статусы читаются до транзакции, чтобы не держать ее открытой на сетевых запросах
	statuses := make(map[string]*model.PlayStatus, len(valid))
	for _, id := range valid {
		if _, tracked := s.plays.FindByPlayID(chainID, id); tracked {
			continue
		}
		status, err := net.supervisor.Status(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("status of play %s: %w", id, err)
		}
		statuses[id] = status
	}

	var survivors []string
	now := time.Now()
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		survivors = survivors[:0]
		var invalid []string

		for _, id := range valid {
			status, ok := statuses[id]
			if !ok {
				continue
			}
			if status.Fulfilled {
				invalid = append(invalid, id)
				continue
			}

			firstSeen, err := s.pending.Touch(txCtx, chainID, id, now)
			if err != nil {
				return err
			}
			if now.Sub(firstSeen) > s.cfg.ResumeExpiry {
				invalid = append(invalid, id)
				continue
			}
			survivors = append(survivors, id)
		}

		if len(invalid) == 0 {
			return nil
		}
		if err := s.invalid.MarkInvalid(txCtx, chainID, invalid...); err != nil {
			return err
		}
		return s.pending.Forget(txCtx, chainID, invalid...)
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile plays: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"chain_id":  chainID,
		"on_ledger": len(ids),
		"resumed":   len(survivors),
	}).Info("plays reconciled")

	return s.resume(ctx, net, chainID, owner, sessionID, survivors, statuses), nil
}

func (s *serv) resume(ctx context.Context, net *network, chainID int64, owner, sessionID string, ids []string, statuses map[string]*model.PlayStatus) []model.PlayRecord {
	out := make([]model.PlayRecord, 0, len(ids))
	for _, id := range ids {
		status, ok := statuses[id]
		if !ok {
			continue
		}
		if _, tracked := s.plays.FindByPlayID(chainID, id); tracked {
			continue
		}
		// Чужая игра не восстанавливается и не помечается: она валидна для своего владельца
		if !strings.EqualFold(status.Player, owner) {
			s.log.WithFields(logrus.Fields{"play_id": id, "player": status.Player}).Warn("pending play belongs to another wallet")
			continue
		}

		table, err := s.tables.Get(ctx, status.TableID)
		if err != nil {
			// Без таблицы результат не разобрать
			s.log.WithError(err).WithField("play_id", id).Warn("pending play references unknown table")
			if err := s.invalid.MarkInvalid(context.WithoutCancel(ctx), chainID, id); err != nil {
				s.log.WithError(err).WithField("play_id", id).Error("failed to mark play invalid")
			}
			continue
		}

		now := time.Now()
		rec := model.PlayRecord{
			ID:         uuid.New(),
			PlayID:     id,
			RequestID:  status.RequestID,
			Stage:      model.StageWaitingForResult,
			StartTime:  s.startTime(ctx, net, status, now),
			StartBlock: status.BlockNumber,
			ChainID:    chainID,
			Owner:      owner,
			SessionID:  sessionID,
			TableID:    table.ID,
			Stake:      status.InputAmount,
			Repeats:    status.Repeats,
			Currency:   strings.ToUpper(status.InputAsset),
			Resumed:    true,
			UpdatedAt:  now,
		}
		s.plays.Upsert(rec)
		metrics.PlayStarted(chainID, "resume")

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.settle(s.ctx, net, rec, table)
		}()

		out = append(out, rec.Clone())
	}
	return out
}

// startTime Время блока, в который попала игра. Если блок неизвестен - момент восстановления.
func (s *serv) startTime(ctx context.Context, net *network, status *model.PlayStatus, fallback time.Time) time.Time {
	if status.BlockNumber == 0 {
		return fallback
	}
	t, err := net.ledger.BlockTime(ctx, status.BlockNumber)
	if err != nil {
		s.log.WithError(err).WithField("play_id", status.PlayID).Warn("failed to read block time")
		return fallback
	}
	return t
}
