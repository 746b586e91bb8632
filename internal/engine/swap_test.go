package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

func swapContext() *SwapContext {
	requester := &domain.Staff{ID: 101, FullName: "陈志明", Role: domain.RoleStaff, ScopeID: "yongan-east"}
	replacement := &domain.Staff{ID: 102, FullName: "林佩珊", Role: domain.RoleEmbalmer, ScopeID: "yongan-east"}

	shift := &domain.Assignment{
		ID:        11,
		StaffID:   requester.ID,
		StaffName: requester.FullName,
		ScopeID:   "yongan-east",
		Kind:      domain.KindOnCall,
		StartTime: time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC),
		Status:    domain.StatusConfirmed,
	}

	return &SwapContext{
		Shift:         shift,
		Requester:     requester,
		Replacement:   replacement,
		PendingCount:  0,
		MaxPending:    2,
		Policy:        testPolicy(),
		Now:           testNow,
		BufferMinutes: 60,
	}
}

func TestValidateSwapRequest(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		require.Nil(t, ValidateSwapRequest(swapContext()))
	})

	t.Run("swapping with yourself is rejected", func(t *testing.T) {
		sc := swapContext()
		sc.Replacement = sc.Requester

		v := ValidateSwapRequest(sc)
		require.NotNil(t, v)
		require.Equal(t, RuleDistinctParties, v.Rule)
	})

	t.Run("shift must belong to the requester", func(t *testing.T) {
		sc := swapContext()
		sc.Shift.StaffID = 999

		v := ValidateSwapRequest(sc)
		require.NotNil(t, v)
		require.Equal(t, RuleShiftOwnership, v.Rule)
	})

	t.Run("terminal shift cannot be swapped", func(t *testing.T) {
		sc := swapContext()
		sc.Shift.Status = domain.StatusCancelled

		v := ValidateSwapRequest(sc)
		require.NotNil(t, v)
		require.Equal(t, RuleShiftOwnership, v.Rule)
	})

	t.Run("pending request limit", func(t *testing.T) {
		sc := swapContext()
		sc.PendingCount = 2

		v := ValidateSwapRequest(sc)
		require.NotNil(t, v)
		require.Equal(t, RulePendingLimit, v.Rule)
	})

	t.Run("request too close to the shift start", func(t *testing.T) {
		sc := swapContext()
		sc.Now = sc.Shift.StartTime.Add(-24 * time.Hour)

		v := ValidateSwapRequest(sc)
		require.NotNil(t, v)
		require.Equal(t, RuleAdvanceNotice, v.Rule)
	})

	t.Run("replacement rank below requester is rejected", func(t *testing.T) {
		sc := swapContext()
		sc.Replacement.Role = domain.RoleDriver

		v := ValidateSwapRequest(sc)
		require.NotNil(t, v)
		require.Equal(t, RuleLicenseRank, v.Rule)
	})

	t.Run("equal rank is allowed", func(t *testing.T) {
		sc := swapContext()
		sc.Replacement.Role = domain.RoleStaff

		require.Nil(t, ValidateSwapRequest(sc))
	})

	t.Run("weekly overtime ceiling", func(t *testing.T) {
		sc := swapContext()
		// 替班人当周已有 40 小时排班，接下 24 小时的班后达到 64 小时
		existing := &domain.Assignment{
			ID:        21,
			StaffID:   sc.Replacement.ID,
			StaffName: sc.Replacement.FullName,
			Kind:      domain.KindShift,
			StartTime: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			Status:    domain.StatusConfirmed,
		}
		sc.ReplacementExisting = []*domain.Assignment{existing}

		v := ValidateSwapRequest(sc)
		require.NotNil(t, v)
		require.Equal(t, RuleWeeklyOvertime, v.Rule)
	})

	t.Run("overtime only counts the hours inside the shift week", func(t *testing.T) {
		sc := swapContext()
		// 上周日 20:00 跨到本周一 08:00 的班只计入本周内的 8 小时：
		// 24 + 8 + 26 = 58 小时，未超过 60 小时上限；按整段 12 小时
		// 计算则会达到 62 小时而被误拒
		crossing := &domain.Assignment{
			ID:        23,
			StaffID:   sc.Replacement.ID,
			StaffName: sc.Replacement.FullName,
			Kind:      domain.KindShift,
			StartTime: time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			Status:    domain.StatusConfirmed,
		}
		inWeek := &domain.Assignment{
			ID:        24,
			StaffID:   sc.Replacement.ID,
			StaffName: sc.Replacement.FullName,
			Kind:      domain.KindShift,
			StartTime: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 12, 2, 0, 0, 0, time.UTC),
			Status:    domain.StatusConfirmed,
		}
		sc.ReplacementExisting = []*domain.Assignment{crossing, inWeek}

		require.Nil(t, ValidateSwapRequest(sc))
	})

	t.Run("replacement schedule conflicts surface through the pipeline", func(t *testing.T) {
		sc := swapContext()
		conflict := &domain.Assignment{
			ID:        22,
			StaffID:   sc.Replacement.ID,
			StaffName: sc.Replacement.FullName,
			Kind:      domain.KindShift,
			StartTime: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC),
			Status:    domain.StatusConfirmed,
		}
		sc.ReplacementExisting = []*domain.Assignment{conflict}

		v := ValidateSwapRequest(sc)
		require.NotNil(t, v)
		require.Equal(t, RuleOverlap, v.Rule)
	})
}

func TestSwapReview(t *testing.T) {
	reviewer := &domain.Staff{ID: 1, FullName: "王德顺", Role: domain.RoleManager}
	replacement := &domain.Staff{ID: 102, FullName: "林佩珊", Role: domain.RoleEmbalmer}

	newRequest := func() *domain.SwapRequest {
		return &domain.SwapRequest{
			ID:           31,
			AssignmentID: 11,
			FromStaffID:  101,
			ToStaffID:    102,
			Reason:       "家中有事",
			Status:       domain.SwapPending,
			RequestedAt:  testNow,
		}
	}

	t.Run("approve returns a reassignment instruction", func(t *testing.T) {
		req := newRequest()

		instruction, err := ApproveSwap(req, replacement, reviewer, testNow)
		require.NoError(t, err)
		require.Equal(t, domain.SwapApproved, req.Status)
		require.NotNil(t, req.ReviewedAt)
		require.Equal(t, reviewer.ID, *req.ReviewedBy)
		require.Equal(t, int64(11), instruction.AssignmentID)
		require.Equal(t, int64(102), instruction.NewStaffID)
	})

	t.Run("unauthorized reviewer cannot approve", func(t *testing.T) {
		req := newRequest()
		driver := &domain.Staff{ID: 2, Role: domain.RoleDriver}

		_, err := ApproveSwap(req, replacement, driver, testNow)
		require.ErrorIs(t, err, ErrNotAuthorized)
		require.Equal(t, domain.SwapPending, req.Status)
	})

	t.Run("resolved requests cannot be reviewed again", func(t *testing.T) {
		req := newRequest()

		_, err := ApproveSwap(req, replacement, reviewer, testNow)
		require.NoError(t, err)

		_, err = ApproveSwap(req, replacement, reviewer, testNow)
		require.ErrorIs(t, err, ErrInvalidState)

		err = RejectSwap(req, reviewer, "人手不足", testNow)
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("rejection requires a reason", func(t *testing.T) {
		req := newRequest()

		err := RejectSwap(req, reviewer, "", testNow)
		require.ErrorIs(t, err, ErrReasonRequired)
		require.Equal(t, domain.SwapPending, req.Status)

		err = RejectSwap(req, reviewer, "当日人手不足", testNow)
		require.NoError(t, err)
		require.Equal(t, domain.SwapRejected, req.Status)
		require.Equal(t, "当日人手不足", req.RejectionReason)
	})

	t.Run("only the requester can withdraw", func(t *testing.T) {
		req := newRequest()

		err := WithdrawSwap(req, 999, testNow)
		require.ErrorIs(t, err, ErrNotRequester)

		err = WithdrawSwap(req, 101, testNow)
		require.NoError(t, err)
		require.Equal(t, domain.SwapCancelled, req.Status)

		_, err = ApproveSwap(req, replacement, reviewer, testNow)
		require.ErrorIs(t, err, ErrInvalidState)
	})
}
