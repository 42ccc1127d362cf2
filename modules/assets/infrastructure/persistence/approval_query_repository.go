package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
	"github.com/trackforge/assetflow/modules/assets/services"
	"github.com/trackforge/assetflow/pkg/composables"
)

const (
	pendingListQuery = `
		SELECT aa.id, aa.tenant_id, aa.asset_id, aa.kind, aa.target_kind,
		       aa.target_user_id, aa.target_site_id, aa.target_area_id,
		       aa.disposal_method, aa.note, aa.document_ref, aa.due_date,
		       aa.requested_by, aa.requested_at, aa.approval_status,
		       aa.resolved_by, aa.resolved_at, aa.version,
		       a.code,
		       ru.name AS requester_name,
		       u.name AS user_name,
		       s.name AS site_name,
		       sa.name AS area_name
		FROM asset_assignments aa
		JOIN assets a ON a.tenant_id = aa.tenant_id AND a.id = aa.asset_id AND NOT a.cancelled
		LEFT JOIN users ru ON ru.tenant_id = aa.tenant_id AND ru.id = aa.requested_by
		LEFT JOIN users u ON u.tenant_id = aa.tenant_id AND u.id = aa.target_user_id
		LEFT JOIN sites s ON s.tenant_id = aa.tenant_id AND s.id = aa.target_site_id
		LEFT JOIN site_areas sa ON sa.tenant_id = aa.tenant_id AND sa.id = aa.target_area_id
		WHERE aa.tenant_id = $1
		  AND aa.approval_status = 'pending'
		  AND ($2::text IS NULL OR aa.kind = $2)
		ORDER BY aa.requested_at DESC, aa.id DESC
		LIMIT $3 OFFSET $4`

	pendingCountQuery = `
		SELECT count(*)
		FROM asset_assignments aa
		JOIN assets a ON a.tenant_id = aa.tenant_id AND a.id = aa.asset_id AND NOT a.cancelled
		WHERE aa.tenant_id = $1
		  AND aa.approval_status = 'pending'
		  AND ($2::text IS NULL OR aa.kind = $2)`
)

// PgApprovalQueryRepository is the read side of the approval inbox. Display
// names come from left joins so a deleted user or site never hides a
// pending row.
type PgApprovalQueryRepository struct{}

func NewPgApprovalQueryRepository() services.ApprovalQueryRepository {
	return &PgApprovalQueryRepository{}
}

func (r *PgApprovalQueryRepository) ListPending(ctx context.Context, tenantID uuid.UUID, kind *assignment.Kind, limit, offset int) ([]*services.PendingApprovalRow, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	var kindFilter *string
	if kind != nil {
		v := string(*kind)
		kindFilter = &v
	}

	var total int64
	if err := tx.QueryRow(ctx, pendingCountQuery, tenantID, kindFilter).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count pending")
	}

	rows, err := tx.Query(ctx, pendingListQuery, tenantID, kindFilter, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list pending")
	}
	defer rows.Close()

	var out []*services.PendingApprovalRow
	for rows.Next() {
		var (
			a    assignment.Assignment
			item services.PendingApprovalRow
		)
		if err := rows.Scan(
			&a.ID,
			&a.TenantID,
			&a.AssetID,
			&a.Kind,
			&a.Target.Kind,
			&a.Target.UserID,
			&a.Target.SiteID,
			&a.Target.AreaID,
			&a.DisposalMethod,
			&a.Note,
			&a.DocumentRef,
			&a.DueDate,
			&a.RequestedBy,
			&a.RequestedAt,
			&a.ApprovalStatus,
			&a.ResolvedBy,
			&a.ResolvedAt,
			&a.Version,
			&item.AssetCode,
			&item.RequesterName,
			&item.UserName,
			&item.SiteName,
			&item.AreaName,
		); err != nil {
			return nil, 0, errors.Wrap(err, "scan pending row")
		}
		item.Assignment = &a
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate pending")
	}
	return out, total, nil
}
