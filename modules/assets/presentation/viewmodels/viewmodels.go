package viewmodels

// TargetView is the union target as the API renders it. Only the fields
// matching Kind are populated.
type TargetView struct {
	Kind   string  `json:"kind"`
	UserID *string `json:"user_id,omitempty"`
	SiteID *string `json:"site_id,omitempty"`
	AreaID *string `json:"area_id,omitempty"`
}

type AssignmentView struct {
	ID             string     `json:"id"`
	AssetID        string     `json:"asset_id"`
	Kind           string     `json:"kind"`
	Target         TargetView `json:"target"`
	DisposalMethod *string    `json:"disposal_method,omitempty"`
	Note           *string    `json:"note,omitempty"`
	DocumentRef    *string    `json:"document_ref,omitempty"`
	DueDate        *string    `json:"due_date,omitempty"`
	RequestedBy    string     `json:"requested_by"`
	RequestedAt    string     `json:"requested_at"`
	ApprovalStatus string     `json:"approval_status"`
	ResolvedBy     *string    `json:"resolved_by,omitempty"`
	ResolvedAt     *string    `json:"resolved_at,omitempty"`
	Version        int64      `json:"version"`
}

type AssetView struct {
	ID                  string  `json:"id"`
	Code                string  `json:"code"`
	Status              string  `json:"status"`
	CurrentAssignmentID *string `json:"current_assignment_id,omitempty"`
}

// ResolutionView is the approve/reject response body.
type ResolutionView struct {
	Assignment AssignmentView `json:"assignment"`
	Asset      AssetView      `json:"asset"`
}

// PendingApprovalView is one line of the approval inbox.
type PendingApprovalView struct {
	Assignment         AssignmentView `json:"assignment"`
	AssetCode          string         `json:"asset_code"`
	RequestedByDisplay string         `json:"requested_by_display"`
	TargetDisplay      string         `json:"target_display"`
}

type HistoryEntryView struct {
	ID        string  `json:"id"`
	AssetID   string  `json:"asset_id"`
	Action    string  `json:"action"`
	Actor     string  `json:"actor"`
	Note      *string `json:"note,omitempty"`
	CreatedAt string  `json:"created_at"`
}
