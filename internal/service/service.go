package service

import (
	"context"
	"time"

	"xbit_backend/internal/model"

	"github.com/shopspring/decimal"
)

type PlayService interface {
	Submit(ctx context.Context, intent model.PlayIntent) (model.PlayRecord, error)
	ResumePendingPlays(ctx context.Context, chainID int64, owner, sessionID string, playIDs []string) ([]model.PlayRecord, error)
	Reconcile(ctx context.Context, chainID int64, owner, sessionID string) ([]model.PlayRecord, error)
	ListActivePlays(sessionID string, chainID int64) []model.PlayRecord
	SelectNetwork(sessionID string, chainID int64) error
	SelectedNetwork(sessionID string) int64
	Dismiss(owner, key string) error
	Subscribe(buffer int) (<-chan model.PlayEvent, func())
	AcknowledgeCongratulation(sessionID string)
	Close()
}

type PreflightService interface {
	Plan(intent model.PlayIntent) ([]model.ApprovalRequest, error)
	Ensure(ctx context.Context, chainID int64, owner string, reqs []model.ApprovalRequest) error
}

type TableService interface {
	List(ctx context.Context) ([]model.ProbabilityTable, error)
	Stats(ctx context.Context, chainID int64, tableID string) (*model.TableStats, error)
}

type PriceService interface {
	Price(asset string) (decimal.Decimal, bool)
	Stale(asset string, maxAge time.Duration) bool
	Refresh(ctx context.Context) error
	Run(ctx context.Context)
}
