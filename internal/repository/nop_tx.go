package repository

import (
	"context"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
)

// NopTxManager Менеджер транзакций для хранилищ в памяти: просто вызывает функцию
type NopTxManager struct{}

var _ trm.Manager = NopTxManager{}

func (NopTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (NopTxManager) DoWithSettings(ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
