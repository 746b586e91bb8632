package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

func weekendAssignment(id int64, start time.Time, status domain.AssignmentStatus) *domain.Assignment {
	return &domain.Assignment{
		ID:        id,
		StaffID:   101,
		StaffName: "陈志明",
		Kind:      domain.KindOnCall,
		StartTime: start,
		EndTime:   start.Add(24 * time.Hour),
		Status:    status,
	}
}

func TestCountConsecutiveWeekends(t *testing.T) {
	// 2025-03-14 是周五
	candidate := weekendAssignment(0, time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC), domain.StatusScheduled)

	t.Run("candidate alone counts as one", func(t *testing.T) {
		require.Equal(t, 1, CountConsecutiveWeekends(candidate, nil))
	})

	t.Run("unbroken run counts every week", func(t *testing.T) {
		existing := []*domain.Assignment{
			weekendAssignment(1, time.Date(2025, 2, 21, 0, 0, 0, 0, time.UTC), domain.StatusCompleted),
			weekendAssignment(2, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), domain.StatusCompleted),
			weekendAssignment(3, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), domain.StatusCompleted),
		}

		require.Equal(t, 4, CountConsecutiveWeekends(candidate, existing))
	})

	t.Run("counting is idempotent", func(t *testing.T) {
		existing := []*domain.Assignment{
			weekendAssignment(1, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), domain.StatusCompleted),
		}

		first := CountConsecutiveWeekends(candidate, existing)
		second := CountConsecutiveWeekends(candidate, existing)
		require.Equal(t, first, second)
		require.Equal(t, 2, first)
	})

	t.Run("a gap week resets the run", func(t *testing.T) {
		// 上一周（3 月 7 日那周）没有值班，更早的记录不再计入
		existing := []*domain.Assignment{
			weekendAssignment(1, time.Date(2025, 2, 21, 0, 0, 0, 0, time.UTC), domain.StatusCompleted),
			weekendAssignment(2, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), domain.StatusCompleted),
		}

		require.Equal(t, 1, CountConsecutiveWeekends(candidate, existing))
	})

	t.Run("terminal statuses do not extend the run", func(t *testing.T) {
		existing := []*domain.Assignment{
			weekendAssignment(1, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), domain.StatusCancelled),
			weekendAssignment(2, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), domain.StatusNoShow),
		}

		require.Equal(t, 1, CountConsecutiveWeekends(candidate, existing))
	})

	t.Run("other staff never count", func(t *testing.T) {
		other := weekendAssignment(1, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), domain.StatusCompleted)
		other.StaffID = 202

		require.Equal(t, 1, CountConsecutiveWeekends(candidate, []*domain.Assignment{other}))
	})

	t.Run("weekday shifts in the previous week are not occurrences", func(t *testing.T) {
		// 周二到周三的班，不覆盖任何模式日
		weekday := weekendAssignment(1, time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC), domain.StatusCompleted)
		weekday.EndTime = weekday.StartTime.Add(12 * time.Hour)

		require.Equal(t, 1, CountConsecutiveWeekends(candidate, []*domain.Assignment{weekday}))
	})

	t.Run("overnight shift crossing into friday extends the run", func(t *testing.T) {
		// 上一周周四 20:00 跨到周五 10:00，不足 24 小时但覆盖了周五早上
		overnight := weekendAssignment(1, time.Date(2025, 3, 6, 20, 0, 0, 0, time.UTC), domain.StatusCompleted)
		overnight.EndTime = time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

		require.Equal(t, 2, CountConsecutiveWeekends(candidate, []*domain.Assignment{overnight}))
	})
}

func TestCoversWeekend(t *testing.T) {
	between := func(start, end time.Time) Window {
		return Window{Start: start, End: end}
	}

	// 2025-03-10 是周一，2025-03-13 是周四
	t.Run("weekday-only window spanning several midnights", func(t *testing.T) {
		w := between(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC))
		require.False(t, coversWeekend(w))
	})

	t.Run("short window starting on a pattern day", func(t *testing.T) {
		w := between(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 14, 4, 0, 0, 0, time.UTC))
		require.True(t, coversWeekend(w))
	})

	t.Run("short window crossing midnight into friday", func(t *testing.T) {
		w := between(time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC), time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
		require.True(t, coversWeekend(w))
	})

	t.Run("thursday window ending before midnight", func(t *testing.T) {
		w := between(time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC), time.Date(2025, 3, 13, 23, 59, 0, 0, time.UTC))
		require.False(t, coversWeekend(w))
	})

	t.Run("sunday night into monday morning", func(t *testing.T) {
		w := between(time.Date(2025, 3, 16, 22, 0, 0, 0, time.UTC), time.Date(2025, 3, 17, 6, 0, 0, 0, time.UTC))
		require.True(t, coversWeekend(w))
	})

	t.Run("empty window", func(t *testing.T) {
		at := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
		require.False(t, coversWeekend(between(at, at)))
	})
}

func TestWeekStartOf(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// 同一周的任意时刻都归到同一个周一
	require.Equal(t, monday, weekStartOf(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, monday, weekStartOf(time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)))
	require.Equal(t, monday, weekStartOf(time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC)))

	require.Equal(t, monday.AddDate(0, 0, 7), weekStartOf(time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)))
}
