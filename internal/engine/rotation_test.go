package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

func TestGeneratePattern(t *testing.T) {
	t.Run("named patterns compile to fixed on weeks", func(t *testing.T) {
		cases := []struct {
			patternType PatternType
			onWeeks     []int
		}{
			{PatternAlternate, []int{1, 3}},
			{PatternFrontload, []int{1, 2}},
			{PatternBookend, []int{1, 4}},
		}

		for _, tc := range cases {
			p, v := GeneratePattern(tc.patternType, nil)
			require.Nil(t, v)
			require.Equal(t, tc.onWeeks, p.OnWeeks)
			require.Equal(t, WeeksPerCycle, p.WeeksPerCycle)
		}
	})

	t.Run("alternate pattern scores a perfect fairness", func(t *testing.T) {
		p, v := GeneratePattern(PatternAlternate, nil)
		require.Nil(t, v)
		require.Equal(t, 100.0, p.FairnessScore())
	})

	t.Run("fairness is symmetric around fifty percent", func(t *testing.T) {
		oneOn, v := GeneratePattern(PatternCustom, []int{1})
		require.Nil(t, v)
		threeOn, v := GeneratePattern(PatternCustom, []int{1, 2, 4})
		require.Nil(t, v)

		require.Equal(t, oneOn.FairnessScore(), threeOn.FairnessScore())
		require.Equal(t, 50.0, oneOn.FairnessScore())
	})

	t.Run("custom pattern requires on weeks", func(t *testing.T) {
		_, v := GeneratePattern(PatternCustom, nil)
		require.NotNil(t, v)
		require.Equal(t, RuleOnWeeks, v.Rule)
	})

	t.Run("custom weeks outside the cycle are rejected", func(t *testing.T) {
		_, v := GeneratePattern(PatternCustom, []int{1, 5})
		require.NotNil(t, v)
		require.Equal(t, RuleOnWeeks, v.Rule)
	})

	t.Run("three consecutive on weeks violate max consecutive", func(t *testing.T) {
		_, v := GeneratePattern(PatternCustom, []int{1, 2, 3})
		require.NotNil(t, v)
		require.Equal(t, RuleMaxConsecutive, v.Rule)
	})

	t.Run("every week on violates min off weeks", func(t *testing.T) {
		_, v := GeneratePattern(PatternCustom, []int{1, 2, 3, 4})
		require.NotNil(t, v)
		require.Equal(t, RuleMinOffWeeks, v.Rule)
	})

	t.Run("non consecutive three on weeks are allowed", func(t *testing.T) {
		p, v := GeneratePattern(PatternCustom, []int{1, 2, 4})
		require.Nil(t, v)
		require.Equal(t, []int{1, 2, 4}, p.OnWeeks)
	})

	t.Run("unknown pattern type is rejected", func(t *testing.T) {
		_, v := GeneratePattern(PatternType("on-on-on-off"), nil)
		require.NotNil(t, v)
		require.Equal(t, RulePatternType, v.Rule)
	})
}

func TestFairnessScore(t *testing.T) {
	// 偏离 50% 达到 50 个百分点时得分归零
	zeroOn := &RotationPattern{WeeksPerCycle: 4, OnWeeks: nil}
	require.Equal(t, 0.0, zeroOn.FairnessScore())

	half := &RotationPattern{WeeksPerCycle: 4, OnWeeks: []int{1, 3}}
	require.Equal(t, 0.5, half.PercentageOn())
	require.Equal(t, 100.0, half.FairnessScore())
}

func TestExpandPattern(t *testing.T) {
	roster := []*domain.Staff{
		{ID: 101, FullName: "陈志明", ScopeID: "yongan-east", Role: domain.RoleStaff},
		{ID: 102, FullName: "林佩珊", ScopeID: "yongan-east", Role: domain.RoleEmbalmer},
	}

	p, v := GeneratePattern(PatternAlternate, nil)
	require.Nil(t, v)

	// 2025-03-03 周一作为周期起点
	cycleStart := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	blocks := ExpandPattern(p, roster, cycleStart)

	// 每人每个值班周一个周末块，块内是周五到周日三条值班
	require.Len(t, blocks, 2*2)

	for _, block := range blocks {
		require.Len(t, block.Assignments, 3)
		for i, a := range block.Assignments {
			require.Equal(t, domain.KindOnCall, a.Kind)
			require.Equal(t, domain.StatusScheduled, a.Status)
			require.True(t, isWeekendDay(a.StartTime.Weekday()))
			require.Equal(t, 24*time.Hour, a.EndTime.Sub(a.StartTime))
			if i > 0 {
				require.Equal(t, block.Assignments[i-1].EndTime, a.StartTime)
			}
		}

		span := block.Span()
		require.Equal(t, time.Friday, span.StartTime.Weekday())
		require.Equal(t, 72*time.Hour, span.EndTime.Sub(span.StartTime))
	}

	// 第一周的周五应当落在 3 月 7 日
	require.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), blocks[0].Assignments[0].StartTime)
	// 第二个值班周是第 3 周，周五落在 3 月 21 日
	require.Equal(t, time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC), blocks[1].Assignments[0].StartTime)
}

func TestWeekendBlockValidation(t *testing.T) {
	roster := []*domain.Staff{
		{ID: 101, FullName: "陈志明", ScopeID: "yongan-east", Role: domain.RoleStaff},
		{ID: 102, FullName: "林佩珊", ScopeID: "yongan-east", Role: domain.RoleEmbalmer},
	}

	p, v := GeneratePattern(PatternAlternate, nil)
	require.Nil(t, v)

	cycleStart := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
	blocks := ExpandPattern(p, roster, cycleStart)

	// 模拟逐块落库：每块的整段周末过管道后，块内三天全部成为后续块的
	// 已有排班。相邻模式日首尾相接，整体校验下不会被缓冲时间判成冲突
	var id int64
	existing := []*domain.Assignment{}
	for _, block := range blocks {
		v := Validate(&RuleContext{
			Candidate:     block.Span(),
			Existing:      existing,
			Policy:        testPolicy(),
			Now:           testNow,
			BufferMinutes: 60,
		})
		require.Nil(t, v)

		for _, a := range block.Assignments {
			id++
			a.ID = id
			existing = append(existing, a)
		}
	}

	// 两名员工、两个值班周，周五到周日共 12 条全部通过
	require.Len(t, existing, 12)
}
