package pending_play_repo

import (
	"context"
	"sync"
	"time"

	"xbit_backend/internal/repository"
)

type memoryRepo struct {
	mtx       sync.Mutex
	firstSeen map[int64]map[string]time.Time
}

func NewMemoryPendingPlayRepository() repository.PendingPlayRepository {
	return &memoryRepo{
		firstSeen: make(map[int64]map[string]time.Time),
	}
}

func (r *memoryRepo) Touch(_ context.Context, chainID int64, playID string, now time.Time) (time.Time, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	seen, ok := r.firstSeen[chainID]
	if !ok {
		seen = make(map[string]time.Time)
		r.firstSeen[chainID] = seen
	}
	if at, ok := seen[playID]; ok {
		return at, nil
	}
	seen[playID] = now
	return now, nil
}

func (r *memoryRepo) Forget(_ context.Context, chainID int64, playIDs ...string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, id := range playIDs {
		delete(r.firstSeen[chainID], id)
	}
	return nil
}
