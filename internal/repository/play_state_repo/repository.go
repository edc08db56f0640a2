package play_state_repo

import (
	"slices"
	"sync"

	"xbit_backend/internal/model"

	"github.com/google/uuid"
)

// StateRepo Коллекция игр процесса, отсортированная по StartTime.
// Наружу отдаются только копии, изменения - только заменой записи целиком.
type StateRepo struct {
	mtx     sync.RWMutex
	records []model.PlayRecord

	subs    map[int]chan model.PlayEvent
	nextSub int
}

// NewPlayStateRepository Конструктор пустой коллекции
func NewPlayStateRepository() *StateRepo {
	return &StateRepo{
		records: make([]model.PlayRecord, 0),
		subs:    make(map[int]chan model.PlayEvent),
	}
}

func byStartTime(a, b model.PlayRecord) int {
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}
	return slices.Compare(a.ID[:], b.ID[:])
}

// Upsert Вставка или замена записи по ID. Порядок восстанавливается после каждой вставки:
// восстановленные игры могут стартовать раньше уже показанных.
func (r *StateRepo) Upsert(record model.PlayRecord) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	rec := record.Clone()
	idx := slices.IndexFunc(r.records, func(p model.PlayRecord) bool { return p.ID == rec.ID })
	if idx >= 0 {
		r.records[idx] = rec
	} else {
		r.records = append(r.records, rec)
	}
	slices.SortStableFunc(r.records, byStartTime)

	r.notify(model.PlayEvent{Type: model.EventUpserted, Record: rec.Clone()})
}

// Get Копия записи по ID
func (r *StateRepo) Get(id uuid.UUID) (model.PlayRecord, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	for _, p := range r.records {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return model.PlayRecord{}, false
}

// FindByKey Поиск по хешу транзакции или ID записи
func (r *StateRepo) FindByKey(key string) (model.PlayRecord, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	for _, p := range r.records {
		if (p.TransactionHash != "" && p.TransactionHash == key) || p.ID.String() == key {
			return p.Clone(), true
		}
	}
	return model.PlayRecord{}, false
}

func (r *StateRepo) FindByPlayID(chainID int64, playID string) (model.PlayRecord, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	for _, p := range r.records {
		if p.ChainID == chainID && p.PlayID == playID {
			return p.Clone(), true
		}
	}
	return model.PlayRecord{}, false
}

// List Игры указанной сети по возрастанию StartTime. chainID == 0 - все сети.
func (r *StateRepo) List(chainID int64) []model.PlayRecord {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	out := make([]model.PlayRecord, 0, len(r.records))
	for _, p := range r.records {
		if chainID == 0 || p.ChainID == chainID {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (r *StateRepo) Remove(id uuid.UUID) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	idx := slices.IndexFunc(r.records, func(p model.PlayRecord) bool { return p.ID == id })
	if idx < 0 {
		return false
	}
	removed := r.records[idx]
	r.records = slices.Delete(r.records, idx, idx+1)

	r.notify(model.PlayEvent{Type: model.EventRemoved, Record: removed.Clone()})
	return true
}

// TrimTerminal Удаляет самые старые завершенные игры, пока коллекция больше capacity.
// Незавершенные игры не трогаются.
func (r *StateRepo) TrimTerminal(capacity int) []model.PlayRecord {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	var removed []model.PlayRecord
	for len(r.records) > capacity {
		idx := slices.IndexFunc(r.records, func(p model.PlayRecord) bool { return p.Stage.IsTerminal() })
		if idx < 0 {
			break
		}
		rec := r.records[idx]
		r.records = slices.Delete(r.records, idx, idx+1)
		removed = append(removed, rec.Clone())
		r.notify(model.PlayEvent{Type: model.EventRemoved, Record: rec.Clone()})
	}
	return removed
}

// Subscribe Подписка на изменения. Медленный подписчик теряет события, а не блокирует игры.
func (r *StateRepo) Subscribe(buffer int) (<-chan model.PlayEvent, func()) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	ch := make(chan model.PlayEvent, buffer)
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mtx.Lock()
			defer r.mtx.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish Событие, не связанное с изменением коллекции (например, поздравление)
func (r *StateRepo) Publish(event model.PlayEvent) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	r.notify(event)
}

// notify Вызывается под мьютексом
func (r *StateRepo) notify(event model.PlayEvent) {
	for _, ch := range r.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
