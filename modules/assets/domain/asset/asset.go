package asset

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an asset. Pending states mirror the
// presence of an unresolved assignment; Disposed is terminal.
type Status string

const (
	StatusAvailable       Status = "available"
	StatusPendingTransfer Status = "pending_transfer"
	StatusPendingDisposal Status = "pending_disposal"
	StatusAssigned        Status = "assigned"
	StatusDisposed        Status = "disposed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusPendingTransfer, StatusPendingDisposal, StatusAssigned, StatusDisposed:
		return true
	}
	return false
}

// Pending reports whether an approval decision is outstanding; no other
// lifecycle command is valid while pending.
func (s Status) Pending() bool {
	return s == StatusPendingTransfer || s == StatusPendingDisposal
}

// Terminal reports whether the asset has left the lifecycle for good.
func (s Status) Terminal() bool {
	return s == StatusDisposed
}

type Asset struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	// Code is the human-readable asset code, unique per tenant.
	Code                string     `json:"code"`
	Status              Status     `json:"status"`
	CurrentAssignmentID *uuid.UUID `json:"current_assignment_id,omitempty"`
	Cancelled           bool       `json:"cancelled"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// AcceptsRequests reports whether a new transfer or disposal may be opened.
func (a *Asset) AcceptsRequests() bool {
	return !a.Cancelled && (a.Status == StatusAvailable || a.Status == StatusAssigned)
}
