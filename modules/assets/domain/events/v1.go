package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/trackforge/assetflow/modules/assets/domain/asset"
	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
)

const (
	TopicTransferRequestedV1  = "assets.transfer.requested.v1"
	TopicDisposalRequestedV1  = "assets.disposal.requested.v1"
	TopicAssignmentResolvedV1 = "assets.assignment.resolved.v1"
	EventVersionV1            = 1
)

// RequestOpenedV1 is published after a transfer or disposal request commits.
type RequestOpenedV1 struct {
	EventID         uuid.UUID       `json:"event_id"`
	EventVersion    int             `json:"event_version"`
	Topic           string          `json:"topic"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	TransactionTime time.Time       `json:"transaction_time"`
	AssetID         uuid.UUID       `json:"asset_id"`
	AssignmentID    uuid.UUID       `json:"assignment_id"`
	Kind            assignment.Kind `json:"kind"`
	RequestedBy     uuid.UUID       `json:"requested_by"`
}

// AssignmentResolvedV1 is published after an approve or reject commits.
type AssignmentResolvedV1 struct {
	EventID         uuid.UUID                 `json:"event_id"`
	EventVersion    int                       `json:"event_version"`
	Topic           string                    `json:"topic"`
	TenantID        uuid.UUID                 `json:"tenant_id"`
	TransactionTime time.Time                 `json:"transaction_time"`
	AssetID         uuid.UUID                 `json:"asset_id"`
	AssignmentID    uuid.UUID                 `json:"assignment_id"`
	Kind            assignment.Kind           `json:"kind"`
	Decision        assignment.ApprovalStatus `json:"decision"`
	AssetStatus     asset.Status              `json:"asset_status"`
	ResolvedBy      uuid.UUID                 `json:"resolved_by"`
}
