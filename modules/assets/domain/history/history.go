package history

import (
	"time"

	"github.com/google/uuid"
)

// Transition labels recorded on the audit trail.
const (
	ActionTransferRequested = "transfer-requested"
	ActionDisposalRequested = "disposal-requested"
	ActionApproved          = "approved"
	ActionRejected          = "rejected"
)

// Entry is one immutable line of an asset's audit trail. Entries are only
// ever appended, inside the same transaction as the transition they record.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	AssetID   uuid.UUID `json:"asset_id"`
	Action    string    `json:"action"`
	Actor     uuid.UUID `json:"actor"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
