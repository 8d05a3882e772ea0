package tasks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusIsValid(t *testing.T) {
	require.True(t, StatusPending.IsValid())
	require.True(t, StatusInProgress.IsValid())
	require.True(t, StatusCompleted.IsValid())
	require.False(t, Status("DONE").IsValid())
	require.False(t, Status("pending").IsValid())
	require.False(t, Status("").IsValid())
}

func TestPriorityIsValid(t *testing.T) {
	require.True(t, PriorityLow.IsValid())
	require.True(t, PriorityMedium.IsValid())
	require.True(t, PriorityHigh.IsValid())
	require.False(t, Priority("URGENT").IsValid())
	require.False(t, Priority("").IsValid())
}

func TestAssignmentMessages(t *testing.T) {
	require.Equal(t, `You have been assigned a new task: "Ship v2".`, CreatedMessage("Ship v2"))
	require.Equal(t, `You have been assigned a task: "Ship v2".`, AssignedMessage("Ship v2"))
	require.Equal(t, `Your task "Ship v2" has been unassigned.`, UnassignedMessage("Ship v2"))
}
