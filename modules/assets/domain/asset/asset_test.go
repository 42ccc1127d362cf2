package asset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusAvailable, StatusPendingTransfer, StatusPendingDisposal, StatusAssigned, StatusDisposed} {
		require.True(t, s.Valid(), "status %q should be valid", s)
	}
	require.False(t, Status("retired").Valid())
	require.False(t, Status("").Valid())
}

func TestStatus_PendingAndTerminal(t *testing.T) {
	require.True(t, StatusPendingTransfer.Pending())
	require.True(t, StatusPendingDisposal.Pending())
	require.False(t, StatusAvailable.Pending())
	require.False(t, StatusDisposed.Pending())

	require.True(t, StatusDisposed.Terminal())
	require.False(t, StatusAssigned.Terminal())
}

func TestAsset_AcceptsRequests(t *testing.T) {
	cases := []struct {
		status    Status
		cancelled bool
		want      bool
	}{
		{StatusAvailable, false, true},
		{StatusAssigned, false, true},
		{StatusAvailable, true, false},
		{StatusPendingTransfer, false, false},
		{StatusPendingDisposal, false, false},
		{StatusDisposed, false, false},
	}
	for _, tc := range cases {
		a := &Asset{Status: tc.status, Cancelled: tc.cancelled}
		require.Equal(t, tc.want, a.AcceptsRequests(), "status=%s cancelled=%v", tc.status, tc.cancelled)
	}
}
