package assignment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTarget_Validate(t *testing.T) {
	userID := uuid.New()
	siteID := uuid.New()
	areaID := uuid.New()

	require.NoError(t, UserTarget(userID).Validate())
	require.NoError(t, SiteTarget(siteID, areaID).Validate())
	require.NoError(t, DisposedTarget().Validate())

	require.ErrorIs(t, Target{Kind: TargetUser}.Validate(), ErrInvalidTarget)
	require.ErrorIs(t, Target{Kind: TargetUser, UserID: &uuid.Nil}.Validate(), ErrInvalidTarget)
	require.ErrorIs(t, Target{Kind: TargetSite, SiteID: &siteID}.Validate(), ErrInvalidTarget)
	require.ErrorIs(t, Target{Kind: TargetDisposed, UserID: &userID}.Validate(), ErrInvalidTarget)
	require.ErrorIs(t, Target{Kind: "warehouse"}.Validate(), ErrInvalidTarget)

	// cross-field contamination
	mixed := UserTarget(userID)
	mixed.SiteID = &siteID
	require.ErrorIs(t, mixed.Validate(), ErrInvalidTarget)
}

func TestApprovalStatus_Resolved(t *testing.T) {
	require.False(t, StatusPending.Resolved())
	require.True(t, StatusApproved.Resolved())
	require.True(t, StatusRejected.Resolved())
}
