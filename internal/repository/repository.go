package repository

import (
	"context"
	"time"

	"xbit_backend/internal/model"

	"github.com/google/uuid"
)

// InvalidPlayRepository Множество ID игр, которые нельзя восстанавливать (по сетям)
type InvalidPlayRepository interface {
	MarkInvalid(ctx context.Context, chainID int64, playIDs ...string) error
	ListKnownValid(ctx context.Context, chainID int64, candidates []string) ([]string, error)
}

// PendingPlayRepository Время, когда незавершенная игра была замечена впервые
type PendingPlayRepository interface {
	Touch(ctx context.Context, chainID int64, playID string, now time.Time) (firstSeen time.Time, err error)
	Forget(ctx context.Context, chainID int64, playIDs ...string) error
}

// TableRepository Каталог таблиц вероятностей
type TableRepository interface {
	Get(ctx context.Context, id string) (model.ProbabilityTable, error)
	List(ctx context.Context) ([]model.ProbabilityTable, error)
	Put(ctx context.Context, table model.ProbabilityTable) error
}

// PlayStateRepository Общая упорядоченная коллекция игр процесса.
// Любое изменение - замена записи целиком.
type PlayStateRepository interface {
	Upsert(record model.PlayRecord)
	Get(id uuid.UUID) (model.PlayRecord, bool)
	FindByKey(key string) (model.PlayRecord, bool)
	FindByPlayID(chainID int64, playID string) (model.PlayRecord, bool)
	List(chainID int64) []model.PlayRecord
	Remove(id uuid.UUID) bool
	TrimTerminal(capacity int) []model.PlayRecord
	Subscribe(buffer int) (<-chan model.PlayEvent, func())
	Publish(event model.PlayEvent)
}
