package invalid_play_repo

import (
	"context"
	"sync"

	"xbit_backend/internal/repository"
)

// memoryRepo Используется, когда база не настроена
type memoryRepo struct {
	mtx     sync.RWMutex
	invalid map[int64]map[string]struct{}
}

func NewMemoryInvalidPlayRepository() repository.InvalidPlayRepository {
	return &memoryRepo{
		invalid: make(map[int64]map[string]struct{}),
	}
}

func (r *memoryRepo) MarkInvalid(_ context.Context, chainID int64, playIDs ...string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	set, ok := r.invalid[chainID]
	if !ok {
		set = make(map[string]struct{})
		r.invalid[chainID] = set
	}
	for _, id := range playIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (r *memoryRepo) ListKnownValid(_ context.Context, chainID int64, candidates []string) ([]string, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return filterValid(candidates, r.invalid[chainID]), nil
}
