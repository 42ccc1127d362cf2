package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/trackforge/assetflow/modules/assets/domain/history"
	"github.com/trackforge/assetflow/modules/assets/services"
	"github.com/trackforge/assetflow/pkg/composables"
)

const (
	historyInsertQuery = `
		INSERT INTO asset_history (id, tenant_id, asset_id, action, actor, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	historyListQuery = `
		SELECT id, tenant_id, asset_id, action, actor, note, created_at
		FROM asset_history
		WHERE tenant_id = $1 AND asset_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`
)

// PgHistoryRepository appends to and reads the append-only audit table.
// There is deliberately no update or delete statement here.
type PgHistoryRepository struct{}

func NewPgHistoryRepository() services.HistoryRepository {
	return &PgHistoryRepository{}
}

func (r *PgHistoryRepository) Insert(ctx context.Context, entry *history.Entry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		historyInsertQuery,
		entry.ID,
		entry.TenantID,
		entry.AssetID,
		entry.Action,
		entry.Actor,
		entry.Note,
		entry.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "insert history entry")
	}
	return nil
}

func (r *PgHistoryRepository) ListByAsset(ctx context.Context, tenantID, assetID uuid.UUID, limit int) ([]*history.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, historyListQuery, tenantID, assetID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list history")
	}
	defer rows.Close()

	var out []*history.Entry
	for rows.Next() {
		var e history.Entry
		if err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&e.AssetID,
			&e.Action,
			&e.Actor,
			&e.Note,
			&e.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan history entry")
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate history")
	}
	return out, nil
}
