package invalid_play_repo

import (
	"context"
	"time"

	"xbit_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table       = "invalid_play_ids"
	colChainID  = "chain_id"
	colPlayID   = "play_id"
	colMarkedAt = "marked_at"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewInvalidPlayRepository(dbc *pgxpool.Pool) repository.InvalidPlayRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// MarkInvalid - сохраняет ID игр как невалидные. Повторная отметка ничего не меняет.
func (r *repo) MarkInvalid(ctx context.Context, chainID int64, playIDs ...string) error {
	if len(playIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	query := sq.Insert(table).
		Columns(colChainID, colPlayID, colMarkedAt).
		Suffix("ON CONFLICT (" + colChainID + ", " + colPlayID + ") DO NOTHING").
		PlaceholderFormat(sq.Dollar)
	for _, id := range playIDs {
		query = query.Values(chainID, id, now)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	return err
}

// ListKnownValid - возвращает кандидатов, которых нет среди невалидных, в исходном порядке
func (r *repo) ListKnownValid(ctx context.Context, chainID int64, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	query := sq.Select(colPlayID).
		From(table).
		Where(sq.Eq{colChainID: chainID, colPlayID: candidates}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invalid := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		invalid[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return filterValid(candidates, invalid), nil
}

func filterValid(candidates []string, invalid map[string]struct{}) []string {
	valid := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, bad := invalid[id]; !bad {
			valid = append(valid, id)
		}
	}
	return valid
}
