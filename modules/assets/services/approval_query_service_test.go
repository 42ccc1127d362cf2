package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
)

type queryStore struct {
	rows []*PendingApprovalRow

	gotKind   *assignment.Kind
	gotLimit  int
	gotOffset int
}

func (s *queryStore) ListPending(_ context.Context, tenantID uuid.UUID, kind *assignment.Kind, limit, offset int) ([]*PendingApprovalRow, int64, error) {
	s.gotKind = kind
	s.gotLimit = limit
	s.gotOffset = offset

	var out []*PendingApprovalRow
	for _, row := range s.rows {
		if row.Assignment.TenantID != tenantID {
			continue
		}
		if kind != nil && row.Assignment.Kind != *kind {
			continue
		}
		out = append(out, row)
	}
	return out, int64(len(out)), nil
}

func pendingRow(tenantID uuid.UUID, kind assignment.Kind, target assignment.Target) *PendingApprovalRow {
	return &PendingApprovalRow{
		Assignment: &assignment.Assignment{
			ID:             uuid.New(),
			TenantID:       tenantID,
			AssetID:        uuid.New(),
			Kind:           kind,
			Target:         target,
			RequestedBy:    uuid.New(),
			RequestedAt:    time.Now().UTC(),
			ApprovalStatus: assignment.StatusPending,
			Version:        1,
		},
		AssetCode: "AST-0001",
	}
}

func TestListPending_RendersTargets(t *testing.T) {
	stubTx(t)
	tenantID := uuid.New()

	userName := "Dana Reyes"
	siteName := "North Depot"
	areaName := "Bay 4"
	requester := "Sam Okafor"

	userRow := pendingRow(tenantID, assignment.KindTransfer, assignment.UserTarget(uuid.New()))
	userRow.UserName = &userName
	userRow.RequesterName = &requester
	siteRow := pendingRow(tenantID, assignment.KindTransfer, assignment.SiteTarget(uuid.New(), uuid.New()))
	siteRow.SiteName = &siteName
	siteRow.AreaName = &areaName
	disposalRow := pendingRow(tenantID, assignment.KindDisposal, assignment.DisposedTarget())

	store := &queryStore{rows: []*PendingApprovalRow{userRow, siteRow, disposalRow}}
	svc := NewApprovalQueryService(store)

	items, total, err := svc.ListPending(context.Background(), tenantID, PendingQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, items, 3)
	require.Equal(t, "Dana Reyes", items[0].TargetDisplay)
	require.Equal(t, "Sam Okafor", items[0].RequestedByDisplay)
	require.Equal(t, "North Depot / Bay 4", items[1].TargetDisplay)
	require.Equal(t, "Disposal", items[2].TargetDisplay)
}

func TestListPending_FallsBackToIdentifiers(t *testing.T) {
	stubTx(t)
	tenantID := uuid.New()
	userID := uuid.New()

	row := pendingRow(tenantID, assignment.KindTransfer, assignment.UserTarget(userID))
	store := &queryStore{rows: []*PendingApprovalRow{row}}
	svc := NewApprovalQueryService(store)

	items, _, err := svc.ListPending(context.Background(), tenantID, PendingQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, userID.String(), items[0].TargetDisplay)
	require.Equal(t, row.Assignment.RequestedBy.String(), items[0].RequestedByDisplay)
}

func TestListPending_FiltersAndClampsPaging(t *testing.T) {
	stubTx(t)
	tenantID := uuid.New()
	store := &queryStore{rows: []*PendingApprovalRow{
		pendingRow(tenantID, assignment.KindTransfer, assignment.UserTarget(uuid.New())),
		pendingRow(tenantID, assignment.KindDisposal, assignment.DisposedTarget()),
	}}
	svc := NewApprovalQueryService(store)

	kind := assignment.KindDisposal
	items, total, err := svc.ListPending(context.Background(), tenantID, PendingQuery{Kind: &kind, Limit: 5000, Offset: -3})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	require.Equal(t, assignment.KindDisposal, items[0].Assignment.Kind)
	require.Equal(t, 25, store.gotLimit)
	require.Equal(t, 0, store.gotOffset)
	require.NotNil(t, store.gotKind)

	bad := assignment.Kind("loan")
	_, _, err = svc.ListPending(context.Background(), tenantID, PendingQuery{Kind: &bad})
	requireServiceCode(t, err, CodeInvalidBody)
}

func TestListPending_TenantScoped(t *testing.T) {
	stubTx(t)
	tenantID := uuid.New()
	store := &queryStore{rows: []*PendingApprovalRow{
		pendingRow(uuid.New(), assignment.KindTransfer, assignment.UserTarget(uuid.New())),
	}}
	svc := NewApprovalQueryService(store)

	items, total, err := svc.ListPending(context.Background(), tenantID, PendingQuery{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, items)
}
