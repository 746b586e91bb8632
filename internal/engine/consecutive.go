package engine

import (
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

// 周末值班的模式日为周五、周六、周日
func isWeekendDay(day time.Weekday) bool {
	return day == time.Friday || day == time.Saturday || day == time.Sunday
}

// coversWeekend 判断时间段内是否至少包含一个模式日
// 检查起点所在的日期以及窗口内跨过的每个午夜，不足 24 小时的跨日
// 窗口也能覆盖到后一天
func coversWeekend(w Window) bool {
	if !w.Start.Before(w.End) {
		return false
	}
	if isWeekendDay(w.Start.Weekday()) {
		return true
	}

	day := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, w.Start.Location())
	for t := day.AddDate(0, 0, 1); t.Before(w.End); t = t.AddDate(0, 0, 1) {
		if isWeekendDay(t.Weekday()) {
			return true
		}
	}
	return false
}

// weekStartOf 返回 t 所在周的周一零点，用作周的标识
func weekStartOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	// time.Weekday 以周日为 0，转换成以周一为 0
	offset := (int(t.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// CountConsecutiveWeekends 从候选排班所在周开始逐周回溯，统计同一员工
// 不间断的周末值班次数。候选排班自身计为第一次，遇到没有周末值班的
// 一周即停止。重复统计的结果是幂等的
func CountConsecutiveWeekends(candidate *domain.Assignment, existing []*domain.Assignment) int {
	run := 1
	week := weekStartOf(candidate.StartTime).AddDate(0, 0, -7)

	for {
		found := false
		for _, a := range existing {
			if a.ID == candidate.ID || a.StaffID != candidate.StaffID {
				continue
			}
			if a.Status.IsTerminal() {
				continue
			}
			if !coversWeekend(Window{Start: a.StartTime, End: a.EndTime}) {
				continue
			}
			if weekStartOf(a.StartTime).Equal(week) {
				found = true
				break
			}
		}

		if !found {
			break
		}

		run++
		week = week.AddDate(0, 0, -7)
	}

	return run
}
