package assignment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTransfer Kind = "transfer"
	KindDisposal Kind = "disposal"
)

func (k Kind) Valid() bool {
	return k == KindTransfer || k == KindDisposal
}

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Resolved() bool {
	return s == StatusApproved || s == StatusRejected
}

// TargetKind discriminates the assignment target union.
type TargetKind string

const (
	TargetUser     TargetKind = "user"
	TargetSite     TargetKind = "site"
	TargetDisposed TargetKind = "disposed"
)

var (
	ErrInvalidTarget = errors.New("invalid assignment target")
)

// Target is the destination of a transfer, or the disposal marker. Exactly
// the fields implied by Kind are set; everything else stays nil.
type Target struct {
	Kind   TargetKind `json:"kind"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
	SiteID *uuid.UUID `json:"site_id,omitempty"`
	AreaID *uuid.UUID `json:"area_id,omitempty"`
}

func UserTarget(userID uuid.UUID) Target {
	return Target{Kind: TargetUser, UserID: &userID}
}

func SiteTarget(siteID, areaID uuid.UUID) Target {
	return Target{Kind: TargetSite, SiteID: &siteID, AreaID: &areaID}
}

func DisposedTarget() Target {
	return Target{Kind: TargetDisposed}
}

func (t Target) Validate() error {
	switch t.Kind {
	case TargetUser:
		if t.UserID == nil || *t.UserID == uuid.Nil || t.SiteID != nil || t.AreaID != nil {
			return ErrInvalidTarget
		}
	case TargetSite:
		if t.SiteID == nil || *t.SiteID == uuid.Nil || t.AreaID == nil || *t.AreaID == uuid.Nil || t.UserID != nil {
			return ErrInvalidTarget
		}
	case TargetDisposed:
		if t.UserID != nil || t.SiteID != nil || t.AreaID != nil {
			return ErrInvalidTarget
		}
	default:
		return ErrInvalidTarget
	}
	return nil
}

// Assignment is a transfer or disposal request, pending or resolved.
// Rows are append-only except for the resolution fields; Version backs the
// optimistic check that makes resolution exactly-once.
type Assignment struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       uuid.UUID      `json:"tenant_id"`
	AssetID        uuid.UUID      `json:"asset_id"`
	Kind           Kind           `json:"kind"`
	Target         Target         `json:"target"`
	DisposalMethod *string        `json:"disposal_method,omitempty"`
	Note           *string        `json:"note,omitempty"`
	DocumentRef    *string        `json:"document_ref,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	RequestedBy    uuid.UUID      `json:"requested_by"`
	RequestedAt    time.Time      `json:"requested_at"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ResolvedBy     *uuid.UUID     `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	Version        int64          `json:"version"`
}
