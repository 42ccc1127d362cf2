package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
)

// PendingApprovalRow is what the read side returns: the pending assignment
// plus the display names its target joins to. Display fields are nil when
// the referenced row has no name to offer.
type PendingApprovalRow struct {
	Assignment    *assignment.Assignment
	AssetCode     string
	RequesterName *string
	UserName      *string
	SiteName      *string
	AreaName      *string
}

// ApprovalQueryRepository lists pending assignments for the approval inbox,
// newest first.
type ApprovalQueryRepository interface {
	ListPending(ctx context.Context, tenantID uuid.UUID, kind *assignment.Kind, limit, offset int) ([]*PendingApprovalRow, int64, error)
}

// PendingApproval is one inbox line with the target already rendered.
type PendingApproval struct {
	Assignment         *assignment.Assignment
	AssetCode          string
	RequestedByDisplay string
	TargetDisplay      string
}

// PendingQuery filters and pages the approval inbox.
type PendingQuery struct {
	Kind   *assignment.Kind
	Limit  int
	Offset int
}

type ApprovalQueryService struct {
	repo ApprovalQueryRepository
}

func NewApprovalQueryService(repo ApprovalQueryRepository) *ApprovalQueryService {
	return &ApprovalQueryService{repo: repo}
}

// ListPending returns the tenant's open requests and the total count for
// paging.
func (s *ApprovalQueryService) ListPending(ctx context.Context, tenantID uuid.UUID, q PendingQuery) ([]*PendingApproval, int64, error) {
	if q.Kind != nil && !q.Kind.Valid() {
		return nil, 0, errInvalidBody("unknown request kind")
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 25
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	type page struct {
		rows  []*PendingApprovalRow
		total int64
	}
	out, err := inTx(ctx, tenantID, func(txCtx context.Context) (page, error) {
		rows, total, err := s.repo.ListPending(txCtx, tenantID, q.Kind, q.Limit, q.Offset)
		if err != nil {
			return page{}, mapPgError(err)
		}
		return page{rows: rows, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	items := make([]*PendingApproval, 0, len(out.rows))
	for _, row := range out.rows {
		requestedBy := row.Assignment.RequestedBy.String()
		if row.RequesterName != nil {
			requestedBy = *row.RequesterName
		}
		items = append(items, &PendingApproval{
			Assignment:         row.Assignment,
			AssetCode:          row.AssetCode,
			RequestedByDisplay: requestedBy,
			TargetDisplay:      renderTarget(row),
		})
	}
	return items, out.total, nil
}

// renderTarget folds the target union into the single display string the
// inbox shows. Missing display rows fall back to the raw identifier so the
// line stays actionable.
func renderTarget(row *PendingApprovalRow) string {
	t := row.Assignment.Target
	switch t.Kind {
	case assignment.TargetUser:
		if row.UserName != nil {
			return *row.UserName
		}
		if t.UserID != nil {
			return t.UserID.String()
		}
		return "Unknown user"
	case assignment.TargetSite:
		site := ""
		if row.SiteName != nil {
			site = *row.SiteName
		} else if t.SiteID != nil {
			site = t.SiteID.String()
		}
		if row.AreaName != nil {
			return fmt.Sprintf("%s / %s", site, *row.AreaName)
		}
		return site
	case assignment.TargetDisposed:
		return "Disposal"
	default:
		return string(t.Kind)
	}
}
