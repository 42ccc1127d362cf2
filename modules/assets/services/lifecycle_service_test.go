package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/trackforge/assetflow/modules/assets/domain/asset"
	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
	"github.com/trackforge/assetflow/modules/assets/domain/events"
	"github.com/trackforge/assetflow/modules/assets/domain/history"
	"github.com/trackforge/assetflow/pkg/eventbus"
)

// memoryStore backs the service tests with the same guarantees the schema
// gives the real repositories: one pending assignment per asset enforced on
// insert, and version-guarded resolution.
type memoryStore struct {
	mu          sync.Mutex
	assets      map[uuid.UUID]*asset.Asset
	assignments map[uuid.UUID]*assignment.Assignment
	entries     []*history.Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		assets:      map[uuid.UUID]*asset.Asset{},
		assignments: map[uuid.UUID]*assignment.Assignment{},
	}
}

func (s *memoryStore) addAsset(a *asset.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.assets[a.ID] = &cp
}

func (s *memoryStore) GetAssetForUpdate(ctx context.Context, tenantID, assetID uuid.UUID) (*asset.Asset, error) {
	return s.GetAsset(ctx, tenantID, assetID)
}

func (s *memoryStore) GetAsset(_ context.Context, tenantID, assetID uuid.UUID) (*asset.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[assetID]
	if !ok || a.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (s *memoryStore) GetAssignment(_ context.Context, tenantID, assignmentID uuid.UUID) (*assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.assignments[assignmentID]
	if !ok || row.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	cp := *row
	return &cp, nil
}

func (s *memoryStore) InsertAssignment(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.TenantID == a.TenantID && existing.AssetID == a.AssetID &&
			existing.ApprovalStatus == assignment.StatusPending {
			return &pgconn.PgError{Code: "23505", ConstraintName: "asset_assignments_pending_per_asset"}
		}
	}
	cp := *a
	s.assignments[a.ID] = &cp
	return nil
}

func (s *memoryStore) UpdateAssetProjection(_ context.Context, tenantID, assetID uuid.UUID, status asset.Status, currentAssignmentID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[assetID]
	if !ok || a.TenantID != tenantID {
		return pgx.ErrNoRows
	}
	a.Status = status
	a.CurrentAssignmentID = currentAssignmentID
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryStore) ResolveAssignment(_ context.Context, tenantID, assignmentID uuid.UUID, decision assignment.ApprovalStatus, resolvedBy uuid.UUID, resolvedAt time.Time, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.assignments[assignmentID]
	if !ok || row.TenantID != tenantID {
		return false, nil
	}
	if row.ApprovalStatus != assignment.StatusPending || row.Version != expectedVersion {
		return false, nil
	}
	row.ApprovalStatus = decision
	row.ResolvedBy = &resolvedBy
	row.ResolvedAt = &resolvedAt
	row.Version++
	return true, nil
}

func (s *memoryStore) Insert(_ context.Context, entry *history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *memoryStore) ListByAsset(_ context.Context, tenantID, assetID uuid.UUID, limit int) ([]*history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Appends happen in commit order, so reverse iteration is newest first.
	var out []*history.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.TenantID == tenantID && e.AssetID == assetID {
			cp := *e
			out = append(out, &cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func stubTx(t *testing.T) {
	t.Helper()
	prev := runInTx
	runInTx = func(ctx context.Context, _ uuid.UUID, fn func(txCtx context.Context) error) error {
		return fn(ctx)
	}
	t.Cleanup(func() { runInTx = prev })
}

func quietBus() eventbus.EventBus {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return eventbus.NewEventPublisher(log)
}

func newLifecycleFixture(t *testing.T) (*AssetLifecycleService, *memoryStore, eventbus.EventBus) {
	t.Helper()
	stubTx(t)
	store := newMemoryStore()
	bus := quietBus()
	return NewAssetLifecycleService(store, store, bus), store, bus
}

func seedAsset(store *memoryStore, tenantID uuid.UUID, status asset.Status) *asset.Asset {
	a := &asset.Asset{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Code:      "AST-0001",
		Status:    status,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	store.addAsset(a)
	return a
}

func requireServiceCode(t *testing.T, err error, code string) *ServiceError {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(*ServiceError)
	require.True(t, ok, "expected *ServiceError, got %T: %v", err, err)
	require.Equal(t, code, svcErr.Code)
	return svcErr
}

func TestRequestTransfer_OpensPendingAssignment(t *testing.T) {
	svc, store, bus := newLifecycleFixture(t)
	tenantID := uuid.New()
	actorID := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAvailable)

	var published []events.RequestOpenedV1
	bus.Subscribe(func(ev events.RequestOpenedV1) { published = append(published, ev) })

	note := "move to HQ"
	created, err := svc.RequestTransfer(context.Background(), tenantID, actorID, a.ID, TransferRequest{
		Target: assignment.UserTarget(uuid.New()),
		Note:   &note,
	})
	require.NoError(t, err)
	require.Equal(t, assignment.StatusPending, created.ApprovalStatus)
	require.Equal(t, int64(1), created.Version)
	require.Equal(t, assignment.KindTransfer, created.Kind)

	stored, err := store.GetAsset(context.Background(), tenantID, a.ID)
	require.NoError(t, err)
	require.Equal(t, asset.StatusPendingTransfer, stored.Status)

	entries, err := store.ListByAsset(context.Background(), tenantID, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, history.ActionTransferRequested, entries[0].Action)
	require.Equal(t, actorID, entries[0].Actor)

	require.Len(t, published, 1)
	require.Equal(t, events.TopicTransferRequestedV1, published[0].Topic)
	require.Equal(t, created.ID, published[0].AssignmentID)
}

func TestRequestTransfer_FromAssignedAsset(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAssigned)

	_, err := svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
		Target: assignment.SiteTarget(uuid.New(), uuid.New()),
	})
	require.NoError(t, err)
}

func TestRequestTransfer_RejectsBadTargets(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAvailable)

	_, err := svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
		Target: assignment.DisposedTarget(),
	})
	requireServiceCode(t, err, CodeInvalidBody)

	_, err = svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
		Target: assignment.Target{Kind: assignment.TargetSite},
	})
	requireServiceCode(t, err, CodeInvalidBody)
}

func TestRequest_WhilePendingIsInvalidState(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAvailable)

	_, err := svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
		Target: assignment.UserTarget(uuid.New()),
	})
	require.NoError(t, err)

	// The pending state is visible to the second writer, so this is an
	// invalid command rather than a lost race.
	_, err = svc.RequestDisposal(context.Background(), tenantID, uuid.New(), a.ID, DisposalRequest{Method: "scrap"})
	requireServiceCode(t, err, CodeInvalidState)

	_, err = svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
		Target: assignment.UserTarget(uuid.New()),
	})
	requireServiceCode(t, err, CodeInvalidState)
}

func TestRequestTransfer_RaceLosesOnUniqueIndex(t *testing.T) {
	// Simulates the race where both writers pass the status check before
	// either commits: the partial unique index decides, and the loser's
	// violation surfaces as a conflict.
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAvailable)

	pending := &assignment.Assignment{
		ID:             uuid.New(),
		TenantID:       tenantID,
		AssetID:        a.ID,
		Kind:           assignment.KindTransfer,
		Target:         assignment.UserTarget(uuid.New()),
		RequestedBy:    uuid.New(),
		RequestedAt:    time.Now().UTC(),
		ApprovalStatus: assignment.StatusPending,
		Version:        1,
	}
	require.NoError(t, store.InsertAssignment(context.Background(), pending))

	_, err := svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
		Target: assignment.UserTarget(uuid.New()),
	})
	requireServiceCode(t, err, CodeConflict)
}

func TestRequestTransfer_ConcurrentRequestersOpenOnePending(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAvailable)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
				Target: assignment.UserTarget(uuid.New()),
			})
			errs[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	require.Len(t, failed, 1, "exactly one requester must win")

	// The loser either sees the winner's pending row (invalid command) or
	// loses the insert itself (conflict), depending on interleaving.
	var svcErr *ServiceError
	require.ErrorAs(t, failed[0], &svcErr)
	require.Contains(t, []string{CodeInvalidState, CodeConflict}, svcErr.Code)

	store.mu.Lock()
	pendingCount := 0
	for _, row := range store.assignments {
		if row.AssetID == a.ID && row.ApprovalStatus == assignment.StatusPending {
			pendingCount++
		}
	}
	store.mu.Unlock()
	require.Equal(t, 1, pendingCount)

	got, err := store.GetAsset(context.Background(), tenantID, a.ID)
	require.NoError(t, err)
	require.Equal(t, asset.StatusPendingTransfer, got.Status)
}

func TestRequestDisposal_RequiresMethod(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAvailable)

	_, err := svc.RequestDisposal(context.Background(), tenantID, uuid.New(), a.ID, DisposalRequest{Method: "  "})
	requireServiceCode(t, err, CodeInvalidBody)
}

func TestRequest_UnknownOrForeignAssetIsNotFound(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	otherTenant := uuid.New()
	a := seedAsset(store, otherTenant, asset.StatusAvailable)

	_, err := svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
		Target: assignment.UserTarget(uuid.New()),
	})
	requireServiceCode(t, err, CodeNotFound)

	_, err = svc.RequestDisposal(context.Background(), tenantID, uuid.New(), uuid.New(), DisposalRequest{Method: "scrap"})
	requireServiceCode(t, err, CodeNotFound)
}

func openTransfer(t *testing.T, svc *AssetLifecycleService, store *memoryStore, tenantID uuid.UUID) (*asset.Asset, *assignment.Assignment, uuid.UUID) {
	t.Helper()
	requester := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAvailable)
	created, err := svc.RequestTransfer(context.Background(), tenantID, requester, a.ID, TransferRequest{
		Target: assignment.UserTarget(uuid.New()),
	})
	require.NoError(t, err)
	return a, created, requester
}

func TestApprove_TransferAssignsAsset(t *testing.T) {
	svc, store, bus := newLifecycleFixture(t)
	tenantID := uuid.New()
	a, created, _ := openTransfer(t, svc, store, tenantID)

	var resolved []events.AssignmentResolvedV1
	bus.Subscribe(func(ev events.AssignmentResolvedV1) { resolved = append(resolved, ev) })

	approver := uuid.New()
	out, err := svc.Approve(context.Background(), tenantID, approver, created.ID, ResolveCommand{ExpectedVersion: 1})
	require.NoError(t, err)
	require.Equal(t, assignment.StatusApproved, out.Assignment.ApprovalStatus)
	require.Equal(t, asset.StatusAssigned, out.Asset.Status)
	require.NotNil(t, out.Asset.CurrentAssignmentID)
	require.Equal(t, created.ID, *out.Asset.CurrentAssignmentID)

	entries, err := store.ListByAsset(context.Background(), tenantID, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Len(t, resolved, 1)
	require.Equal(t, assignment.StatusApproved, resolved[0].Decision)
	require.Equal(t, asset.StatusAssigned, resolved[0].AssetStatus)
}

func TestApprove_DisposalIsTerminal(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	a := seedAsset(store, tenantID, asset.StatusAvailable)

	created, err := svc.RequestDisposal(context.Background(), tenantID, uuid.New(), a.ID, DisposalRequest{Method: "scrap"})
	require.NoError(t, err)

	out, err := svc.Approve(context.Background(), tenantID, uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 1})
	require.NoError(t, err)
	require.Equal(t, asset.StatusDisposed, out.Asset.Status)
	require.Nil(t, out.Asset.CurrentAssignmentID)

	// Nothing can be requested for a disposed asset.
	_, err = svc.RequestTransfer(context.Background(), tenantID, uuid.New(), a.ID, TransferRequest{
		Target: assignment.UserTarget(uuid.New()),
	})
	requireServiceCode(t, err, CodeInvalidState)

	_, err = svc.RequestDisposal(context.Background(), tenantID, uuid.New(), a.ID, DisposalRequest{Method: "sale"})
	requireServiceCode(t, err, CodeInvalidState)
}

func TestReject_RevertsToPriorStatus(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()

	// Asset with no prior assignment reverts to available.
	_, created, _ := openTransfer(t, svc, store, tenantID)
	out, err := svc.Reject(context.Background(), tenantID, uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 1})
	require.NoError(t, err)
	require.Equal(t, asset.StatusAvailable, out.Asset.Status)
	require.Nil(t, out.Asset.CurrentAssignmentID)

	// Asset already assigned keeps its active assignment on reject.
	prior := uuid.New()
	held := &asset.Asset{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		Code:                "AST-0002",
		Status:              asset.StatusAssigned,
		CurrentAssignmentID: &prior,
	}
	store.addAsset(held)
	created2, err := svc.RequestDisposal(context.Background(), tenantID, uuid.New(), held.ID, DisposalRequest{Method: "scrap"})
	require.NoError(t, err)
	out, err = svc.Reject(context.Background(), tenantID, uuid.New(), created2.ID, ResolveCommand{ExpectedVersion: 1})
	require.NoError(t, err)
	require.Equal(t, asset.StatusAssigned, out.Asset.Status)
	require.NotNil(t, out.Asset.CurrentAssignmentID)
	require.Equal(t, prior, *out.Asset.CurrentAssignmentID)
}

func TestResolve_ExactlyOnce(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	_, created, _ := openTransfer(t, svc, store, tenantID)

	_, err := svc.Approve(context.Background(), tenantID, uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 1})
	require.NoError(t, err)

	// Second decision, either way, is a conflict.
	_, err = svc.Approve(context.Background(), tenantID, uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 1})
	requireServiceCode(t, err, CodeConflict)
	_, err = svc.Reject(context.Background(), tenantID, uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 2})
	requireServiceCode(t, err, CodeConflict)
}

func TestResolve_StaleVersionConflicts(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	_, created, _ := openTransfer(t, svc, store, tenantID)

	_, err := svc.Approve(context.Background(), tenantID, uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 7})
	requireServiceCode(t, err, CodeConflict)

	_, err = svc.Approve(context.Background(), tenantID, uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 0})
	requireServiceCode(t, err, CodeInvalidBody)
}

func TestResolve_SelfApprovalForbidden(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	_, created, requester := openTransfer(t, svc, store, tenantID)

	_, err := svc.Approve(context.Background(), tenantID, requester, created.ID, ResolveCommand{ExpectedVersion: 1})
	requireServiceCode(t, err, CodeForbidden)
	_, err = svc.Reject(context.Background(), tenantID, requester, created.ID, ResolveCommand{ExpectedVersion: 1})
	requireServiceCode(t, err, CodeForbidden)
}

func TestResolve_CrossTenantLooksAbsent(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	_, created, _ := openTransfer(t, svc, store, tenantID)

	_, err := svc.Approve(context.Background(), uuid.New(), uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 1})
	requireServiceCode(t, err, CodeNotFound)
}

func TestHistory_ReturnsNewestFirstAndChecksTenant(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	a, created, _ := openTransfer(t, svc, store, tenantID)

	_, err := svc.Approve(context.Background(), tenantID, uuid.New(), created.ID, ResolveCommand{ExpectedVersion: 1})
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), tenantID, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, history.ActionApproved, entries[0].Action)
	require.Equal(t, history.ActionTransferRequested, entries[1].Action)

	_, err = svc.History(context.Background(), uuid.New(), a.ID, 10)
	requireServiceCode(t, err, CodeNotFound)
}

func TestCancelledAssetLooksAbsent(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t)
	tenantID := uuid.New()
	gone := &asset.Asset{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Code:      "AST-0009",
		Status:    asset.StatusAvailable,
		Cancelled: true,
	}
	store.addAsset(gone)

	_, err := svc.RequestTransfer(context.Background(), tenantID, uuid.New(), gone.ID, TransferRequest{
		Target: assignment.UserTarget(uuid.New()),
	})
	requireServiceCode(t, err, CodeNotFound)

	_, err = svc.History(context.Background(), tenantID, gone.ID, 10)
	requireServiceCode(t, err, CodeNotFound)
}
