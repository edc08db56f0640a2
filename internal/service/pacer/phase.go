package pacer

import (
	"context"
	"sync"
	"time"

	"xbit_backend/internal/model"

	"github.com/google/uuid"
)

type Phase int

const (
	PhaseWaiting Phase = iota - 1
	PhaseDiceRolling
	PhaseBallDropping
	PhaseResultSettling
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "WAITING"
	case PhaseDiceRolling:
		return "DICE_ROLLING"
	case PhaseBallDropping:
		return "BALL_DROPPING"
	case PhaseResultSettling:
		return "RESULT_SETTLING"
	case PhaseCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// Durations Длительность фаз анимации
type Durations struct {
	DiceRolling  time.Duration
	BallDropping time.Duration
}

func DefaultDurations() Durations {
	return Durations{DiceRolling: 9 * time.Second, BallDropping: 3 * time.Second}
}

type phaseState struct {
	phase Phase
	timer *time.Timer
}

// Tracker Фазы анимации по событиям коллекции игр. Только читает события, записи не меняет.
type Tracker struct {
	durations Durations

	mu     sync.Mutex
	phases map[uuid.UUID]*phaseState
}

func NewTracker(d Durations) *Tracker {
	return &Tracker{
		durations: d,
		phases:    make(map[uuid.UUID]*phaseState),
	}
}

// Run Обрабатывает события до закрытия канала или отмены контекста
func (t *Tracker) Run(ctx context.Context, events <-chan model.PlayEvent) {
	defer t.stopAll()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.Handle(ev)
		}
	}
}

func (t *Tracker) Handle(ev model.PlayEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := ev.Record.ID
	state, ok := t.phases[id]

	if ev.Type == model.EventRemoved {
		if ok {
			stopTimer(state)
			delete(t.phases, id)
		}
		return
	}
	if ev.Type != model.EventUpserted {
		return
	}

	if !ok {
		state = &phaseState{phase: PhaseWaiting}
		t.phases[id] = state
	}

	switch {
	case ev.Record.Stage.IsTerminal():
		stopTimer(state)
		state.phase = PhaseCompleted
	case ev.Record.Stage == model.StageWaitingForReceipt && state.phase == PhaseWaiting:
		state.phase = PhaseDiceRolling
		state.timer = time.AfterFunc(t.durations.DiceRolling, func() {
			t.step(id, PhaseDiceRolling, PhaseBallDropping, t.durations.BallDropping)
		})
	}
}

// step Переводит фазу from -> to, если ее никто не поменял раньше
func (t *Tracker) step(id uuid.UUID, from, to Phase, next time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.phases[id]
	if !ok || state.phase != from {
		return
	}
	state.phase = to
	state.timer = nil

	if to == PhaseBallDropping {
		state.timer = time.AfterFunc(next, func() {
			t.step(id, PhaseBallDropping, PhaseResultSettling, 0)
		})
	}
}

func (t *Tracker) Phase(id uuid.UUID) Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state, ok := t.phases[id]; ok {
		return state.phase
	}
	return PhaseWaiting
}

func (t *Tracker) stopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, state := range t.phases {
		stopTimer(state)
	}
}

func stopTimer(state *phaseState) {
	if state.timer != nil {
		state.timer.Stop()
		state.timer = nil
	}
}
