// Package pacer содержит косметику поверх жизненного цикла игры:
// задержку перед WaitingForResult и фазы анимации. На расчеты не влияет.
package pacer

import (
	"context"
	"time"

	"xbit_backend/internal/model"
)

// Pacer Решает, когда игра из RequestingRandomness переходит в WaitingForResult
type Pacer interface {
	Advance(ctx context.Context, record model.PlayRecord) error
}

// Immediate Переход сразу
type Immediate struct{}

func (Immediate) Advance(ctx context.Context, _ model.PlayRecord) error {
	return ctx.Err()
}

// Guarded Держит RequestingRandomness заданное время, чтобы быстрая сеть не выглядела зависшей
type Guarded struct {
	delay time.Duration
	next  Pacer
}

func NewGuarded(delay time.Duration, next Pacer) *Guarded {
	if next == nil {
		next = Immediate{}
	}
	return &Guarded{delay: delay, next: next}
}

func (g *Guarded) Advance(ctx context.Context, record model.PlayRecord) error {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return g.next.Advance(ctx, record)
}
