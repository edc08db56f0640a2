package pending_play_repo

import (
	"context"
	"time"

	"xbit_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table        = "pending_play_ids"
	colChainID   = "chain_id"
	colPlayID    = "play_id"
	colFirstSeen = "first_seen"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewPendingPlayRepository(dbc *pgxpool.Pool) repository.PendingPlayRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Touch - запоминает время первого появления игры и возвращает его.
// Для уже известной игры время не меняется.
func (r *repo) Touch(ctx context.Context, chainID int64, playID string, now time.Time) (time.Time, error) {
	query := sq.Insert(table).
		Columns(colChainID, colPlayID, colFirstSeen).
		Values(chainID, playID, now.UTC()).
		Suffix("ON CONFLICT (" + colChainID + ", " + colPlayID + ") DO UPDATE SET " +
			colPlayID + " = EXCLUDED." + colPlayID + " RETURNING " + colFirstSeen).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return time.Time{}, err
	}

	var firstSeen time.Time
	err = r.getter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...).Scan(&firstSeen)
	if err != nil {
		return time.Time{}, err
	}
	return firstSeen, nil
}

// Forget - удаляет игры из списка ожидающих
func (r *repo) Forget(ctx context.Context, chainID int64, playIDs ...string) error {
	if len(playIDs) == 0 {
		return nil
	}

	query := sq.Delete(table).
		Where(sq.Eq{colChainID: chainID, colPlayID: playIDs}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	return err
}
