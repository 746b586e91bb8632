package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignmentStatusTransitions(t *testing.T) {
	t.Run("forward transitions are allowed", func(t *testing.T) {
		require.True(t, StatusScheduled.CanTransitionTo(StatusConfirmed))
		require.True(t, StatusConfirmed.CanTransitionTo(StatusInProgress))
		require.True(t, StatusInProgress.CanTransitionTo(StatusCompleted))
	})

	t.Run("cancellation paths", func(t *testing.T) {
		require.True(t, StatusScheduled.CanTransitionTo(StatusCancelled))
		require.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
		require.True(t, StatusConfirmed.CanTransitionTo(StatusNoShow))
		require.True(t, StatusInProgress.CanTransitionTo(StatusNoShow))
	})

	t.Run("backward transitions are rejected", func(t *testing.T) {
		require.False(t, StatusConfirmed.CanTransitionTo(StatusScheduled))
		require.False(t, StatusCompleted.CanTransitionTo(StatusInProgress))
		require.False(t, StatusInProgress.CanTransitionTo(StatusScheduled))
	})

	t.Run("terminal statuses allow nothing", func(t *testing.T) {
		for _, s := range []AssignmentStatus{StatusCancelled, StatusNoShow, StatusCompleted} {
			for _, next := range []AssignmentStatus{StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow} {
				require.False(t, s.CanTransitionTo(next), "%s -> %s", s, next)
			}
		}
	})

	t.Run("terminal detection", func(t *testing.T) {
		require.True(t, StatusCancelled.IsTerminal())
		require.True(t, StatusNoShow.IsTerminal())
		require.False(t, StatusCompleted.IsTerminal())
		require.False(t, StatusScheduled.IsTerminal())
	})
}

func TestRoleRank(t *testing.T) {
	t.Run("ranks form a total order", func(t *testing.T) {
		require.Greater(t, RoleAdmin.Rank(), RoleManager.Rank())
		require.Greater(t, RoleManager.Rank(), RoleEmbalmer.Rank())
		require.Greater(t, RoleEmbalmer.Rank(), RoleStaff.Rank())
		require.Greater(t, RoleStaff.Rank(), RoleDriver.Rank())
	})

	t.Run("only supervisors can review", func(t *testing.T) {
		require.True(t, RoleAdmin.CanReview())
		require.True(t, RoleManager.CanReview())
		require.False(t, RoleEmbalmer.CanReview())
		require.False(t, RoleStaff.CanReview())
		require.False(t, RoleDriver.CanReview())
	})
}
