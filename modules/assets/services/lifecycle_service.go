package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trackforge/assetflow/modules/assets/domain/asset"
	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
	"github.com/trackforge/assetflow/modules/assets/domain/events"
	"github.com/trackforge/assetflow/modules/assets/domain/history"
	"github.com/trackforge/assetflow/pkg/composables"
	"github.com/trackforge/assetflow/pkg/eventbus"
)

// LifecycleRepository is the write-side persistence surface of the lifecycle
// service. Every method scopes by tenantID; a row belonging to another
// tenant behaves as if it did not exist.
type LifecycleRepository interface {
	// GetAssetForUpdate locks the asset row for the rest of the transaction.
	GetAssetForUpdate(ctx context.Context, tenantID, assetID uuid.UUID) (*asset.Asset, error)
	GetAsset(ctx context.Context, tenantID, assetID uuid.UUID) (*asset.Asset, error)
	GetAssignment(ctx context.Context, tenantID, assignmentID uuid.UUID) (*assignment.Assignment, error)
	InsertAssignment(ctx context.Context, a *assignment.Assignment) error
	UpdateAssetProjection(ctx context.Context, tenantID, assetID uuid.UUID, status asset.Status, currentAssignmentID *uuid.UUID) error
	// ResolveAssignment flips a pending row to the given decision iff it is
	// still pending at the expected version. Returns false when nothing
	// matched, which means somebody else resolved it first.
	ResolveAssignment(ctx context.Context, tenantID, assignmentID uuid.UUID, decision assignment.ApprovalStatus, resolvedBy uuid.UUID, resolvedAt time.Time, expectedVersion int64) (bool, error)
}

// HistoryRepository appends and reads the per-asset audit trail.
type HistoryRepository interface {
	Insert(ctx context.Context, entry *history.Entry) error
	ListByAsset(ctx context.Context, tenantID, assetID uuid.UUID, limit int) ([]*history.Entry, error)
}

// TransferRequest opens a transfer toward a user or a site/area.
type TransferRequest struct {
	Target  assignment.Target
	Note    *string
	DueDate *time.Time
}

// DisposalRequest opens a disposal; Method names how the asset leaves
// (scrap, sale, donation, ...).
type DisposalRequest struct {
	Method      string
	DocumentRef *string
	Note        *string
	DueDate     *time.Time
}

// ResolveCommand carries the approver's decision input. ExpectedVersion is
// the assignment version the approver last saw; a stale value is rejected
// as a conflict rather than applied twice.
type ResolveCommand struct {
	ExpectedVersion int64
	Note            *string
}

// Resolution is the post-decision view: the resolved assignment and the
// asset as projected by the decision.
type Resolution struct {
	Assignment *assignment.Assignment
	Asset      *asset.Asset
}

type AssetLifecycleService struct {
	repo      LifecycleRepository
	history   HistoryRepository
	publisher eventbus.EventBus
}

func NewAssetLifecycleService(repo LifecycleRepository, historyRepo HistoryRepository, publisher eventbus.EventBus) *AssetLifecycleService {
	return &AssetLifecycleService{repo: repo, history: historyRepo, publisher: publisher}
}

// RequestTransfer opens a pending transfer for the asset. The asset must be
// available or assigned; the partial unique index on pending assignments
// backs the at-most-one-pending rule under concurrency.
func (s *AssetLifecycleService) RequestTransfer(ctx context.Context, tenantID, actorID, assetID uuid.UUID, cmd TransferRequest) (*assignment.Assignment, error) {
	if cmd.Target.Kind == assignment.TargetDisposed {
		return nil, errInvalidBody("transfer target cannot be disposed")
	}
	if err := cmd.Target.Validate(); err != nil {
		return nil, errInvalidBody("invalid transfer target")
	}

	created, err := inTx(ctx, tenantID, func(txCtx context.Context) (*assignment.Assignment, error) {
		a, err := s.lockRequestableAsset(txCtx, tenantID, assetID)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		row := &assignment.Assignment{
			ID:             uuid.New(),
			TenantID:       tenantID,
			AssetID:        a.ID,
			Kind:           assignment.KindTransfer,
			Target:         cmd.Target,
			Note:           cmd.Note,
			DueDate:        cmd.DueDate,
			RequestedBy:    actorID,
			RequestedAt:    now,
			ApprovalStatus: assignment.StatusPending,
			Version:        1,
		}
		if err := s.repo.InsertAssignment(txCtx, row); err != nil {
			return nil, mapPgError(err)
		}
		if err := s.repo.UpdateAssetProjection(txCtx, tenantID, a.ID, asset.StatusPendingTransfer, a.CurrentAssignmentID); err != nil {
			return nil, mapPgError(err)
		}
		if err := s.appendHistory(txCtx, tenantID, a.ID, history.ActionTransferRequested, actorID, cmd.Note, now); err != nil {
			return nil, err
		}
		return row, nil
	})
	recordTransition("request_transfer", err)
	if err != nil {
		return nil, err
	}
	logTransition(ctx, "transfer requested", logrus.Fields{
		"asset_id":      created.AssetID,
		"assignment_id": created.ID,
	})

	s.publisher.Publish(events.RequestOpenedV1{
		EventID:         uuid.New(),
		EventVersion:    events.EventVersionV1,
		Topic:           events.TopicTransferRequestedV1,
		TenantID:        tenantID,
		TransactionTime: created.RequestedAt,
		AssetID:         created.AssetID,
		AssignmentID:    created.ID,
		Kind:            created.Kind,
		RequestedBy:     created.RequestedBy,
	})
	return created, nil
}

// RequestDisposal opens a pending disposal for the asset.
func (s *AssetLifecycleService) RequestDisposal(ctx context.Context, tenantID, actorID, assetID uuid.UUID, cmd DisposalRequest) (*assignment.Assignment, error) {
	method := strings.TrimSpace(cmd.Method)
	if method == "" {
		return nil, errInvalidBody("disposal method is required")
	}

	created, err := inTx(ctx, tenantID, func(txCtx context.Context) (*assignment.Assignment, error) {
		a, err := s.lockRequestableAsset(txCtx, tenantID, assetID)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		row := &assignment.Assignment{
			ID:             uuid.New(),
			TenantID:       tenantID,
			AssetID:        a.ID,
			Kind:           assignment.KindDisposal,
			Target:         assignment.DisposedTarget(),
			DisposalMethod: &method,
			Note:           cmd.Note,
			DocumentRef:    cmd.DocumentRef,
			DueDate:        cmd.DueDate,
			RequestedBy:    actorID,
			RequestedAt:    now,
			ApprovalStatus: assignment.StatusPending,
			Version:        1,
		}
		if err := s.repo.InsertAssignment(txCtx, row); err != nil {
			return nil, mapPgError(err)
		}
		if err := s.repo.UpdateAssetProjection(txCtx, tenantID, a.ID, asset.StatusPendingDisposal, a.CurrentAssignmentID); err != nil {
			return nil, mapPgError(err)
		}
		if err := s.appendHistory(txCtx, tenantID, a.ID, history.ActionDisposalRequested, actorID, cmd.Note, now); err != nil {
			return nil, err
		}
		return row, nil
	})
	recordTransition("request_disposal", err)
	if err != nil {
		return nil, err
	}
	logTransition(ctx, "disposal requested", logrus.Fields{
		"asset_id":      created.AssetID,
		"assignment_id": created.ID,
	})

	s.publisher.Publish(events.RequestOpenedV1{
		EventID:         uuid.New(),
		EventVersion:    events.EventVersionV1,
		Topic:           events.TopicDisposalRequestedV1,
		TenantID:        tenantID,
		TransactionTime: created.RequestedAt,
		AssetID:         created.AssetID,
		AssignmentID:    created.ID,
		Kind:            created.Kind,
		RequestedBy:     created.RequestedBy,
	})
	return created, nil
}

// Approve applies a pending request. The requester may not approve their own
// request. A transfer puts the asset in assigned; a disposal ends its
// lifecycle for good.
func (s *AssetLifecycleService) Approve(ctx context.Context, tenantID, actorID, assignmentID uuid.UUID, cmd ResolveCommand) (*Resolution, error) {
	return s.resolve(ctx, tenantID, actorID, assignmentID, assignment.StatusApproved, cmd)
}

// Reject declines a pending request and reverts the asset to the status it
// had before the request was opened.
func (s *AssetLifecycleService) Reject(ctx context.Context, tenantID, actorID, assignmentID uuid.UUID, cmd ResolveCommand) (*Resolution, error) {
	return s.resolve(ctx, tenantID, actorID, assignmentID, assignment.StatusRejected, cmd)
}

func (s *AssetLifecycleService) resolve(ctx context.Context, tenantID, actorID, assignmentID uuid.UUID, decision assignment.ApprovalStatus, cmd ResolveCommand) (*Resolution, error) {
	if cmd.ExpectedVersion < 1 {
		return nil, errInvalidBody("expected_version must be at least 1")
	}

	action := history.ActionApproved
	if decision == assignment.StatusRejected {
		action = history.ActionRejected
	}

	out, err := inTx(ctx, tenantID, func(txCtx context.Context) (*Resolution, error) {
		row, err := s.repo.GetAssignment(txCtx, tenantID, assignmentID)
		if err != nil {
			return nil, mapPgError(err)
		}
		if row.ApprovalStatus.Resolved() {
			recordWriteConflict("already_resolved")
			return nil, errConflict("request is already resolved", nil)
		}
		if row.RequestedBy == actorID {
			return nil, errForbidden("requester cannot resolve their own request")
		}

		now := time.Now().UTC()
		ok, err := s.repo.ResolveAssignment(txCtx, tenantID, row.ID, decision, actorID, now, cmd.ExpectedVersion)
		if err != nil {
			return nil, mapPgError(err)
		}
		if !ok {
			recordWriteConflict("version")
			return nil, errConflict("request was resolved concurrently", nil)
		}

		a, err := s.repo.GetAssetForUpdate(txCtx, tenantID, row.AssetID)
		if err != nil {
			return nil, mapPgError(err)
		}

		status, currentID := projectResolution(a, row, decision)
		if err := s.repo.UpdateAssetProjection(txCtx, tenantID, a.ID, status, currentID); err != nil {
			return nil, mapPgError(err)
		}
		if err := s.appendHistory(txCtx, tenantID, a.ID, action, actorID, cmd.Note, now); err != nil {
			return nil, err
		}

		row.ApprovalStatus = decision
		row.ResolvedBy = &actorID
		row.ResolvedAt = &now
		row.Version = cmd.ExpectedVersion + 1
		a.Status = status
		a.CurrentAssignmentID = currentID
		a.UpdatedAt = now
		return &Resolution{Assignment: row, Asset: a}, nil
	})
	recordTransition(action, err)
	if err != nil {
		return nil, err
	}

	recordResolution(string(out.Assignment.Kind), string(decision))
	logTransition(ctx, "request "+string(decision), logrus.Fields{
		"asset_id":      out.Asset.ID,
		"assignment_id": out.Assignment.ID,
		"asset_status":  out.Asset.Status,
	})
	s.publisher.Publish(events.AssignmentResolvedV1{
		EventID:         uuid.New(),
		EventVersion:    events.EventVersionV1,
		Topic:           events.TopicAssignmentResolvedV1,
		TenantID:        tenantID,
		TransactionTime: *out.Assignment.ResolvedAt,
		AssetID:         out.Asset.ID,
		AssignmentID:    out.Assignment.ID,
		Kind:            out.Assignment.Kind,
		Decision:        decision,
		AssetStatus:     out.Asset.Status,
		ResolvedBy:      actorID,
	})
	return out, nil
}

// History returns the newest audit entries for the asset. The asset lookup
// doubles as the tenant check.
func (s *AssetLifecycleService) History(ctx context.Context, tenantID, assetID uuid.UUID, limit int) ([]*history.Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return inTx(ctx, tenantID, func(txCtx context.Context) ([]*history.Entry, error) {
		a, err := s.repo.GetAsset(txCtx, tenantID, assetID)
		if err != nil {
			return nil, mapPgError(err)
		}
		if a.Cancelled {
			return nil, errNotFound("asset not found", nil)
		}
		entries, err := s.history.ListByAsset(txCtx, tenantID, assetID, limit)
		if err != nil {
			return nil, mapPgError(err)
		}
		return entries, nil
	})
}

func (s *AssetLifecycleService) lockRequestableAsset(ctx context.Context, tenantID, assetID uuid.UUID) (*asset.Asset, error) {
	a, err := s.repo.GetAssetForUpdate(ctx, tenantID, assetID)
	if err != nil {
		return nil, mapPgError(err)
	}
	switch {
	case a.Cancelled:
		return nil, errNotFound("asset not found", nil)
	case a.Status.Terminal():
		return nil, errInvalidState("asset is disposed")
	case a.Status.Pending():
		// Visibly pending means the command is invalid right now. The
		// conflict outcome is reserved for the insert race, where the
		// partial unique index picks the loser.
		return nil, errInvalidState("asset already has a pending request")
	case !a.AcceptsRequests():
		return nil, errInvalidState("asset does not accept requests")
	}
	return a, nil
}

func (s *AssetLifecycleService) appendHistory(ctx context.Context, tenantID, assetID uuid.UUID, action string, actor uuid.UUID, note *string, at time.Time) error {
	entry := &history.Entry{
		ID:        uuid.New(),
		TenantID:  tenantID,
		AssetID:   assetID,
		Action:    action,
		Actor:     actor,
		Note:      note,
		CreatedAt: at,
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		return mapPgError(err)
	}
	return nil
}

func logTransition(ctx context.Context, msg string, fields logrus.Fields) {
	if log, ok := composables.TryUseLogger(ctx); ok {
		log.WithFields(fields).Info(msg)
	}
}

// projectResolution derives the asset's next status from the decision.
// A rejected request rolls the asset back to assigned when it still points
// at an active assignment, otherwise to available. An approved disposal
// detaches the asset from any assignment.
func projectResolution(a *asset.Asset, row *assignment.Assignment, decision assignment.ApprovalStatus) (asset.Status, *uuid.UUID) {
	if decision == assignment.StatusRejected {
		if a.CurrentAssignmentID != nil {
			return asset.StatusAssigned, a.CurrentAssignmentID
		}
		return asset.StatusAvailable, nil
	}
	if row.Kind == assignment.KindDisposal {
		return asset.StatusDisposed, nil
	}
	id := row.ID
	return asset.StatusAssigned, &id
}
