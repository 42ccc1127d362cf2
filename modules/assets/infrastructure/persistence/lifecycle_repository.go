package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/trackforge/assetflow/modules/assets/domain/asset"
	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
	"github.com/trackforge/assetflow/modules/assets/services"
	"github.com/trackforge/assetflow/pkg/composables"
)

const (
	assetSelectQuery = `
		SELECT id, tenant_id, code, status, current_assignment_id, cancelled, created_at, updated_at
		FROM assets
		WHERE tenant_id = $1 AND id = $2`

	assignmentSelectQuery = `
		SELECT id, tenant_id, asset_id, kind, target_kind, target_user_id, target_site_id, target_area_id,
		       disposal_method, note, document_ref, due_date,
		       requested_by, requested_at, approval_status, resolved_by, resolved_at, version
		FROM asset_assignments
		WHERE tenant_id = $1 AND id = $2`

	assignmentInsertQuery = `
		INSERT INTO asset_assignments (
			id, tenant_id, asset_id, kind, target_kind, target_user_id, target_site_id, target_area_id,
			disposal_method, note, document_ref, due_date,
			requested_by, requested_at, approval_status, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	assetProjectionQuery = `
		UPDATE assets
		SET status = $3, current_assignment_id = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`

	assignmentResolveQuery = `
		UPDATE asset_assignments
		SET approval_status = $3, resolved_by = $4, resolved_at = $5, version = version + 1
		WHERE tenant_id = $1 AND id = $2 AND approval_status = 'pending' AND version = $6`
)

// PgLifecycleRepository is the transactional write side of the asset
// lifecycle. All statements filter on tenant_id even though RLS already
// fences the session; the column predicate keeps queries correct when RLS
// runs in log-only mode.
type PgLifecycleRepository struct{}

func NewPgLifecycleRepository() services.LifecycleRepository {
	return &PgLifecycleRepository{}
}

func (r *PgLifecycleRepository) GetAssetForUpdate(ctx context.Context, tenantID, assetID uuid.UUID) (*asset.Asset, error) {
	return r.queryAsset(ctx, assetSelectQuery+" FOR UPDATE", tenantID, assetID)
}

func (r *PgLifecycleRepository) GetAsset(ctx context.Context, tenantID, assetID uuid.UUID) (*asset.Asset, error) {
	return r.queryAsset(ctx, assetSelectQuery, tenantID, assetID)
}

func (r *PgLifecycleRepository) queryAsset(ctx context.Context, query string, tenantID, assetID uuid.UUID) (*asset.Asset, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var a asset.Asset
	if err := tx.QueryRow(ctx, query, tenantID, assetID).Scan(
		&a.ID,
		&a.TenantID,
		&a.Code,
		&a.Status,
		&a.CurrentAssignmentID,
		&a.Cancelled,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "query asset")
	}
	return &a, nil
}

func (r *PgLifecycleRepository) GetAssignment(ctx context.Context, tenantID, assignmentID uuid.UUID) (*assignment.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row, err := scanAssignment(tx.QueryRow(ctx, assignmentSelectQuery, tenantID, assignmentID))
	if err != nil {
		return nil, errors.Wrap(err, "query assignment")
	}
	return row, nil
}

func (r *PgLifecycleRepository) InsertAssignment(ctx context.Context, a *assignment.Assignment) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		assignmentInsertQuery,
		a.ID,
		a.TenantID,
		a.AssetID,
		a.Kind,
		a.Target.Kind,
		a.Target.UserID,
		a.Target.SiteID,
		a.Target.AreaID,
		a.DisposalMethod,
		a.Note,
		a.DocumentRef,
		a.DueDate,
		a.RequestedBy,
		a.RequestedAt,
		a.ApprovalStatus,
		a.Version,
	); err != nil {
		return errors.Wrap(err, "insert assignment")
	}
	return nil
}

func (r *PgLifecycleRepository) UpdateAssetProjection(ctx context.Context, tenantID, assetID uuid.UUID, status asset.Status, currentAssignmentID *uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, assetProjectionQuery, tenantID, assetID, status, currentAssignmentID)
	if err != nil {
		return errors.Wrap(err, "update asset projection")
	}
	if tag.RowsAffected() == 0 {
		return errors.New("asset projection update matched no rows")
	}
	return nil
}

func (r *PgLifecycleRepository) ResolveAssignment(ctx context.Context, tenantID, assignmentID uuid.UUID, decision assignment.ApprovalStatus, resolvedBy uuid.UUID, resolvedAt time.Time, expectedVersion int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, assignmentResolveQuery, tenantID, assignmentID, decision, resolvedBy, resolvedAt, expectedVersion)
	if err != nil {
		return false, errors.Wrap(err, "resolve assignment")
	}
	return tag.RowsAffected() == 1, nil
}
