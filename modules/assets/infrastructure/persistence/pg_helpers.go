package persistence

import (
	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*assignment.Assignment, error) {
	var a assignment.Assignment
	if err := row.Scan(
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
	); err != nil {
		return nil, err
	}
	return &a, nil
}
