package mappers

import (
	"time"

	"github.com/google/uuid"

	"github.com/trackforge/assetflow/modules/assets/domain/asset"
	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
	"github.com/trackforge/assetflow/modules/assets/domain/history"
	"github.com/trackforge/assetflow/modules/assets/presentation/viewmodels"
	"github.com/trackforge/assetflow/modules/assets/services"
)

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func TargetToViewModel(t assignment.Target) viewmodels.TargetView {
	return viewmodels.TargetView{
		Kind:   string(t.Kind),
		UserID: uuidString(t.UserID),
		SiteID: uuidString(t.SiteID),
		AreaID: uuidString(t.AreaID),
	}
}

func AssignmentToViewModel(a *assignment.Assignment) viewmodels.AssignmentView {
	return viewmodels.AssignmentView{
		ID:             a.ID.String(),
		AssetID:        a.AssetID.String(),
		Kind:           string(a.Kind),
		Target:         TargetToViewModel(a.Target),
		DisposalMethod: a.DisposalMethod,
		Note:           a.Note,
		DocumentRef:    a.DocumentRef,
		DueDate:        timeString(a.DueDate),
		RequestedBy:    a.RequestedBy.String(),
		RequestedAt:    a.RequestedAt.UTC().Format(time.RFC3339),
		ApprovalStatus: string(a.ApprovalStatus),
		ResolvedBy:     uuidString(a.ResolvedBy),
		ResolvedAt:     timeString(a.ResolvedAt),
		Version:        a.Version,
	}
}

func AssetToViewModel(a *asset.Asset) viewmodels.AssetView {
	return viewmodels.AssetView{
		ID:                  a.ID.String(),
		Code:                a.Code,
		Status:              string(a.Status),
		CurrentAssignmentID: uuidString(a.CurrentAssignmentID),
	}
}

func ResolutionToViewModel(r *services.Resolution) viewmodels.ResolutionView {
	return viewmodels.ResolutionView{
		Assignment: AssignmentToViewModel(r.Assignment),
		Asset:      AssetToViewModel(r.Asset),
	}
}

func PendingApprovalToViewModel(p *services.PendingApproval) viewmodels.PendingApprovalView {
	return viewmodels.PendingApprovalView{
		Assignment:         AssignmentToViewModel(p.Assignment),
		AssetCode:          p.AssetCode,
		RequestedByDisplay: p.RequestedByDisplay,
		TargetDisplay:      p.TargetDisplay,
	}
}

func HistoryEntryToViewModel(e *history.Entry) viewmodels.HistoryEntryView {
	return viewmodels.HistoryEntryView{
		ID:        e.ID.String(),
		AssetID:   e.AssetID.String(),
		Action:    e.Action,
		Actor:     e.Actor.String(),
		Note:      e.Note,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
