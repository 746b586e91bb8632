package engine

import "time"

// Window 左闭右开的时间段 [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps 判断在 a 两侧附加 bufferMinutes 缓冲后，[a.Start-buf, a.End+buf) 与
// [b.Start, b.End) 是否相交。恰好在缓冲边界相接不算冲突
func Overlaps(a Window, b Window, bufferMinutes int) bool {
	buffer := time.Duration(bufferMinutes) * time.Minute
	start := a.Start.Add(-buffer)
	end := a.End.Add(buffer)

	return start.Before(b.End) && b.Start.Before(end)
}

// RestHours 计算上一段排班结束到下一段排班开始之间的休息时长（小时）
// 如果两个时间点倒置则返回负数，由调用方保证时序
func RestHours(earlierEnd time.Time, laterStart time.Time) float64 {
	return laterStart.Sub(earlierEnd).Hours()
}

// HoursWithin 计算 [start, end) 落在窗口 w 内的部分时长（小时）
// 没有交集时返回 0，跨出窗口的时段按窗口边界截断
func HoursWithin(w Window, start time.Time, end time.Time) float64 {
	if start.Before(w.Start) {
		start = w.Start
	}
	if end.After(w.End) {
		end = w.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}
