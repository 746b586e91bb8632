package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

// 周一早上九点作为所有用例的提交时间
var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testPolicy() *domain.Policy {
	return &domain.Policy{
		ScopeID:                    "yongan-east",
		MinAdvanceNoticeHours:      48,
		MinDurationHours:           12,
		MaxDurationHours:           72,
		MinRestHours:               8,
		MaxConsecutiveOn:           2,
		WeeklyOvertimeCeilingHours: 60,
		MaxPreparationsPerShift:    3,
		PreparationBreakHours:      decimal.RequireFromString("0.5"),
		IsCurrent:                  true,
	}
}

func candidateAt(start time.Time, hours int) *domain.Assignment {
	return &domain.Assignment{
		StaffID:   101,
		StaffName: "陈志明",
		ScopeID:   "yongan-east",
		Kind:      domain.KindOnCall,
		StartTime: start,
		EndTime:   start.Add(time.Duration(hours) * time.Hour),
		Status:    domain.StatusScheduled,
	}
}

func validateCandidate(candidate *domain.Assignment, existing []*domain.Assignment) *Violation {
	return Validate(&RuleContext{
		Candidate:     candidate,
		Existing:      existing,
		Policy:        testPolicy(),
		Now:           testNow,
		BufferMinutes: 60,
	})
}

func TestValidate(t *testing.T) {
	t.Run("weekend on-call five days out passes", func(t *testing.T) {
		// 周五 18:00 开始的 63 小时周末值班
		candidate := candidateAt(time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC), 63)

		require.Nil(t, validateCandidate(candidate, nil))
	})

	t.Run("same candidate starting in 24 hours fails advance notice", func(t *testing.T) {
		candidate := candidateAt(testNow.Add(24*time.Hour), 63)

		v := validateCandidate(candidate, nil)
		require.NotNil(t, v)
		require.Equal(t, RuleAdvanceNotice, v.Rule)
	})

	t.Run("advance notice boundary is closed on the lower bound", func(t *testing.T) {
		// 恰好提前 48 小时：通过
		exact := candidateAt(testNow.Add(48*time.Hour), 12)
		require.Nil(t, validateCandidate(exact, nil))

		// 提前 48 小时差一秒：拒绝
		short := candidateAt(testNow.Add(48*time.Hour-time.Second), 12)
		v := validateCandidate(short, nil)
		require.NotNil(t, v)
		require.Equal(t, RuleAdvanceNotice, v.Rule)
	})

	t.Run("missing staff fields fail first", func(t *testing.T) {
		candidate := candidateAt(testNow.Add(72*time.Hour), 12)
		candidate.StaffID = 0
		// 时间窗口同样非法，但必填字段规则先求值
		candidate.EndTime = candidate.StartTime

		v := validateCandidate(candidate, nil)
		require.NotNil(t, v)
		require.Equal(t, RuleRequiredFields, v.Rule)
		require.Equal(t, "staffID", v.Field)

		candidate.StaffID = 101
		candidate.StaffName = ""
		v = validateCandidate(candidate, nil)
		require.NotNil(t, v)
		require.Equal(t, "staffName", v.Field)
	})

	t.Run("inverted window fails", func(t *testing.T) {
		candidate := candidateAt(testNow.Add(72*time.Hour), 12)
		candidate.EndTime = candidate.StartTime.Add(-time.Hour)

		v := validateCandidate(candidate, nil)
		require.NotNil(t, v)
		require.Equal(t, RuleWindowOrder, v.Rule)
	})

	t.Run("duration bounds", func(t *testing.T) {
		tooShort := candidateAt(testNow.Add(72*time.Hour), 6)
		v := validateCandidate(tooShort, nil)
		require.NotNil(t, v)
		require.Equal(t, RuleDurationBounds, v.Rule)

		tooLong := candidateAt(testNow.Add(72*time.Hour), 80)
		v = validateCandidate(tooLong, nil)
		require.NotNil(t, v)
		require.Equal(t, RuleDurationBounds, v.Rule)
	})

	t.Run("buffered overlap against a confirmed assignment", func(t *testing.T) {
		existing := candidateAt(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 4)
		existing.ID = 1
		existing.Status = domain.StatusConfirmed

		// 与已有排班仅间隔 30 分钟，小于 60 分钟缓冲
		candidate := candidateAt(time.Date(2025, 3, 12, 13, 30, 0, 0, time.UTC), 12)

		v := validateCandidate(candidate, []*domain.Assignment{existing})
		require.NotNil(t, v)
		require.Equal(t, RuleOverlap, v.Rule)
	})

	t.Run("terminal assignments are excluded from overlap checks", func(t *testing.T) {
		cancelled := candidateAt(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 12)
		cancelled.ID = 1
		cancelled.Status = domain.StatusCancelled

		noShow := candidateAt(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 12)
		noShow.ID = 2
		noShow.Status = domain.StatusNoShow

		candidate := candidateAt(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 12)

		require.Nil(t, validateCandidate(candidate, []*domain.Assignment{cancelled, noShow}))
	})

	t.Run("rest period below minimum fails", func(t *testing.T) {
		previous := candidateAt(time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC), 12)
		previous.ID = 1
		previous.Status = domain.StatusCompleted

		// 上一班 3 月 12 日 06:00 结束，候选 09:00 开始，仅休息 3 小时
		candidate := candidateAt(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 12)

		v := validateCandidate(candidate, []*domain.Assignment{previous})
		require.NotNil(t, v)
		require.Equal(t, RuleRestPeriod, v.Rule)
	})

	t.Run("rest rule passes vacuously without prior assignments", func(t *testing.T) {
		candidate := candidateAt(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 12)

		require.Nil(t, validateCandidate(candidate, nil))
	})

	t.Run("fourth consecutive weekend fails with the counted run", func(t *testing.T) {
		existing := make([]*domain.Assignment, 0, 3)
		// 连续三个周五的周末值班，全部已完成
		for i, day := range []int{21, 28, 7} {
			month := time.February
			if day == 7 {
				month = time.March
			}
			a := candidateAt(time.Date(2025, month, day, 0, 0, 0, 0, time.UTC), 24)
			a.ID = int64(i + 1)
			a.Status = domain.StatusCompleted
			existing = append(existing, a)
		}

		candidate := candidateAt(time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC), 63)

		v := validateCandidate(candidate, existing)
		require.NotNil(t, v)
		require.Equal(t, RuleConsecutiveOccurrence, v.Rule)
		require.Contains(t, v.Message, "4")
	})

	t.Run("weekday candidates skip the consecutive rule", func(t *testing.T) {
		existing := make([]*domain.Assignment, 0, 3)
		for i, day := range []int{21, 28, 7} {
			month := time.February
			if day == 7 {
				month = time.March
			}
			a := candidateAt(time.Date(2025, month, day, 0, 0, 0, 0, time.UTC), 24)
			a.ID = int64(i + 1)
			a.Status = domain.StatusCompleted
			existing = append(existing, a)
		}

		// 周三的白班，不属于模式日
		candidate := candidateAt(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 12)

		require.Nil(t, validateCandidate(candidate, existing))
	})
}

func TestDefaultRulesOrder(t *testing.T) {
	names := make([]string, 0)
	for _, rule := range DefaultRules() {
		names = append(names, rule.Name)
	}

	require.Equal(t, []string{
		RuleRequiredFields,
		RuleWindowOrder,
		RuleAdvanceNotice,
		RuleDurationBounds,
		RuleOverlap,
		RuleRestPeriod,
		RuleConsecutiveOccurrence,
	}, names)
}
