package play

import (
	"fmt"
	"strings"
	"time"

	"xbit_backend/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ListActivePlays Игры сети по возрастанию StartTime. chainID == 0 - сеть, выбранная сессией.
func (s *serv) ListActivePlays(sessionID string, chainID int64) []model.PlayRecord {
	if chainID == 0 {
		chainID = s.SelectedNetwork(sessionID)
	}
	return s.plays.List(chainID)
}

// SelectNetwork Меняет сеть одной сессии. Игры других сетей только скрываются, их опрос продолжается.
func (s *serv) SelectNetwork(sessionID string, chainID int64) error {
	if _, err := s.network(chainID); err != nil {
		return err
	}

	s.mu.Lock()
	s.selected[sessionID] = chainID
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"chain_id": chainID, "session_id": sessionID}).Info("network selected")
	return nil
}

// SelectedNetwork Сеть сессии, для новой сессии - сеть по умолчанию
func (s *serv) SelectedNetwork(sessionID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked(sessionID)
}

func (s *serv) selectedLocked(sessionID string) int64 {
	if chainID, ok := s.selected[sessionID]; ok {
		return chainID
	}
	return s.defaultChain
}

// Dismiss Убирает завершенную игру владельца по хешу транзакции или ID записи.
// Чужая игра неотличима от отсутствующей.
func (s *serv) Dismiss(owner, key string) error {
	rec, ok := s.plays.FindByKey(key)
	if !ok || !strings.EqualFold(rec.Owner, owner) {
		return fmt.Errorf("%w: %s", model.ErrPlayNotFound, key)
	}
	if !rec.Stage.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", model.ErrNotTerminal, key, rec.Stage)
	}
	s.plays.Remove(rec.ID)
	s.forget(rec.ID)
	return nil
}

func (s *serv) Subscribe(buffer int) (<-chan model.PlayEvent, func()) {
	return s.plays.Subscribe(buffer)
}

// scheduleFade Через FadeAfter убирает старые завершенные игры сверх DisplayCapacity
func (s *serv) scheduleFade() {
	if s.cfg.DisplayCapacity <= 0 {
		return
	}
	time.AfterFunc(s.cfg.FadeAfter, func() {
		if s.ctx.Err() != nil {
			return
		}
		for _, rec := range s.plays.TrimTerminal(s.cfg.DisplayCapacity) {
			s.forget(rec.ID)
			s.recordLog(rec).Debug("play faded out")
		}
	})
}

// forget Убранная из коллекции игра больше не участвует в поздравлениях
func (s *serv) forget(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.congratulated, id)
	for sessionID, shown := range s.displayed {
		if shown == id {
			delete(s.displayed, sessionID)
		}
	}
}

// congratulate Поздравление показывается один раз на игру и не перекрывает
// результат другой игры, который сессия еще не закрыла. Игры сети, не выбранной сессией, не поздравляются.
func (s *serv) congratulate(rec model.PlayRecord) {
	if rec.SessionID == "" {
		return
	}
	// Уже убрана из коллекции
	if _, ok := s.plays.Get(rec.ID); !ok {
		return
	}

	s.mu.Lock()
	if _, done := s.congratulated[rec.ID]; done {
		s.mu.Unlock()
		return
	}
	if rec.ChainID != s.selectedLocked(rec.SessionID) {
		s.mu.Unlock()
		return
	}
	if shown, busy := s.displayed[rec.SessionID]; busy && shown != rec.ID {
		if _, still := s.plays.Get(shown); still {
			s.mu.Unlock()
			return
		}
	}
	s.congratulated[rec.ID] = struct{}{}
	s.displayed[rec.SessionID] = rec.ID
	s.mu.Unlock()

	s.plays.Publish(model.PlayEvent{Type: model.EventCongratulation, Record: rec.Clone()})
}

// AcknowledgeCongratulation Сессия закрыла показанный результат
func (s *serv) AcknowledgeCongratulation(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.displayed, sessionID)
}
