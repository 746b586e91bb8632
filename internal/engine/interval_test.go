package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func window(start time.Time, hours int) Window {
	return Window{Start: start, End: start.Add(time.Duration(hours) * time.Hour)}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("disjoint windows do not overlap without buffer", func(t *testing.T) {
		a := window(base, 4)
		b := window(base.Add(4*time.Hour), 4)

		require.False(t, Overlaps(a, b, 0))
		require.False(t, Overlaps(b, a, 0))
	})

	t.Run("shrinking the gap below the buffer flips the result", func(t *testing.T) {
		a := window(base, 4)
		b := window(base.Add(4*time.Hour+30*time.Minute), 4)

		require.False(t, Overlaps(a, b, 0))
		require.True(t, Overlaps(a, b, 60))
	})

	t.Run("touching exactly at the buffered boundary is not an overlap", func(t *testing.T) {
		a := window(base, 4)
		// b 恰好从缓冲边界开始
		b := window(base.Add(5*time.Hour), 4)

		require.False(t, Overlaps(a, b, 60))
	})

	t.Run("contained window overlaps", func(t *testing.T) {
		a := window(base, 8)
		b := window(base.Add(2*time.Hour), 2)

		require.True(t, Overlaps(a, b, 0))
		require.True(t, Overlaps(b, a, 0))
	})
}

func TestRestHours(t *testing.T) {
	end := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)

	require.Equal(t, 10.0, RestHours(end, end.Add(10*time.Hour)))
	require.Equal(t, 0.5, RestHours(end, end.Add(30*time.Minute)))

	// 时间倒置时返回负数
	require.Equal(t, -2.0, RestHours(end, end.Add(-2*time.Hour)))
}

func TestHoursWithin(t *testing.T) {
	// 2025-03-10 周一到 2025-03-17 的一整周
	week := window(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 7*24)

	t.Run("fully inside", func(t *testing.T) {
		start := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
		require.Equal(t, 12.0, HoursWithin(week, start, start.Add(12*time.Hour)))
	})

	t.Run("crossing into the window is clipped", func(t *testing.T) {
		start := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)
		require.Equal(t, 8.0, HoursWithin(week, start, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))
	})

	t.Run("crossing out of the window is clipped", func(t *testing.T) {
		start := time.Date(2025, 3, 16, 20, 0, 0, 0, time.UTC)
		require.Equal(t, 4.0, HoursWithin(week, start, start.Add(12*time.Hour)))
	})

	t.Run("disjoint yields zero", func(t *testing.T) {
		start := time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC)
		require.Equal(t, 0.0, HoursWithin(week, start, start.Add(8*time.Hour)))
	})
}
