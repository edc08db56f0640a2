package table_repo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"xbit_backend/internal/model"
	"xbit_backend/internal/repository"
	"xbit_backend/internal/service/reward"
)

type repo struct {
	mtx    sync.RWMutex
	tables map[string]model.ProbabilityTable
}

// NewTableRepository Каталог таблиц. Некорректные таблицы отклоняются при загрузке.
func NewTableRepository(tables []model.ProbabilityTable) (repository.TableRepository, error) {
	r := &repo{tables: make(map[string]model.ProbabilityTable, len(tables))}
	for _, t := range tables {
		if err := r.Put(context.Background(), t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *repo) Get(_ context.Context, id string) (model.ProbabilityTable, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	t, ok := r.tables[id]
	if !ok {
		return model.ProbabilityTable{}, fmt.Errorf("%w: %s", model.ErrTableNotFound, id)
	}
	return t.Clone(), nil
}

func (r *repo) List(_ context.Context) ([]model.ProbabilityTable, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	out := make([]model.ProbabilityTable, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Put Таблица неизменяема: повторная загрузка с тем же ID заменяет ее целиком
func (r *repo) Put(_ context.Context, table model.ProbabilityTable) error {
	if err := reward.ValidateTable(table); err != nil {
		return err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.tables[table.ID] = table.Clone()
	return nil
}
