package engine

import (
	"fmt"
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

// 规则标识，返回给调用方后保持稳定，前端和测试都依赖这些值
const (
	RuleRequiredFields        = "required_fields"
	RuleWindowOrder           = "window_order"
	RuleAdvanceNotice         = "advance_notice"
	RuleDurationBounds        = "duration_bounds"
	RuleOverlap               = "overlap"
	RuleRestPeriod            = "rest_period"
	RuleConsecutiveOccurrence = "consecutive_occurrence"
)

// RuleContext 单次校验的全部输入
// Existing 应当是候选人在相关时间范围内的全部排班（含终态），由规则自行过滤
type RuleContext struct {
	Candidate     *domain.Assignment
	Existing      []*domain.Assignment
	Policy        *domain.Policy
	Now           time.Time
	BufferMinutes int
}

type Rule struct {
	Name  string
	Check func(rc *RuleContext) *Violation
}

// defaultRules 的顺序就是规则的求值顺序，不允许并行求值：
// 后面的规则默认前面的规则已经通过（比如提前量规则默认时间窗口合法）
var defaultRules = []Rule{
	{Name: RuleRequiredFields, Check: checkRequiredFields},
	{Name: RuleWindowOrder, Check: checkWindowOrder},
	{Name: RuleAdvanceNotice, Check: checkAdvanceNotice},
	{Name: RuleDurationBounds, Check: checkDurationBounds},
	{Name: RuleOverlap, Check: checkOverlap},
	{Name: RuleRestPeriod, Check: checkRestPeriod},
	{Name: RuleConsecutiveOccurrence, Check: checkConsecutiveOccurrence},
}

func DefaultRules() []Rule {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return rules
}

// Validate 按固定顺序逐条求值，返回第一条被违反的规则（快速失败）
// 不做任何持久化，接受后的写入由调用方负责
func Validate(rc *RuleContext) *Violation {
	for _, rule := range defaultRules {
		if v := rule.Check(rc); v != nil {
			return v
		}
	}
	return nil
}

func checkRequiredFields(rc *RuleContext) *Violation {
	if rc.Candidate.StaffID == 0 {
		return &Violation{Rule: RuleRequiredFields, Field: "staffID", Message: "员工编号不能为空"}
	}
	if rc.Candidate.StaffName == "" {
		return &Violation{Rule: RuleRequiredFields, Field: "staffName", Message: "员工姓名不能为空"}
	}
	return nil
}

func checkWindowOrder(rc *RuleContext) *Violation {
	if !rc.Candidate.EndTime.After(rc.Candidate.StartTime) {
		return &Violation{Rule: RuleWindowOrder, Field: "endTime", Message: "结束时间必须晚于开始时间"}
	}
	return nil
}

func checkAdvanceNotice(rc *RuleContext) *Violation {
	notice := rc.Candidate.StartTime.Sub(rc.Now).Hours()

	// 下界是闭区间：恰好等于最小提前量时通过
	if notice < rc.Policy.MinAdvanceNoticeHours {
		return &Violation{
			Rule:    RuleAdvanceNotice,
			Field:   "startTime",
			Message: fmt.Sprintf("排班必须至少提前 %.0f 小时提交", rc.Policy.MinAdvanceNoticeHours),
		}
	}

	if rc.Policy.MaxAdvanceNoticeHours > 0 && notice > rc.Policy.MaxAdvanceNoticeHours {
		return &Violation{
			Rule:    RuleAdvanceNotice,
			Field:   "startTime",
			Message: fmt.Sprintf("排班最多只能提前 %.0f 小时提交", rc.Policy.MaxAdvanceNoticeHours),
		}
	}

	return nil
}

func checkDurationBounds(rc *RuleContext) *Violation {
	duration := rc.Candidate.EndTime.Sub(rc.Candidate.StartTime).Hours()

	if duration < rc.Policy.MinDurationHours {
		return &Violation{
			Rule:    RuleDurationBounds,
			Field:   "endTime",
			Message: fmt.Sprintf("排班时长不能少于 %.0f 小时", rc.Policy.MinDurationHours),
		}
	}

	if rc.Policy.MaxDurationHours > 0 && duration > rc.Policy.MaxDurationHours {
		return &Violation{
			Rule:    RuleDurationBounds,
			Field:   "endTime",
			Message: fmt.Sprintf("排班时长不能超过 %.0f 小时", rc.Policy.MaxDurationHours),
		}
	}

	return nil
}

func checkOverlap(rc *RuleContext) *Violation {
	candidate := Window{Start: rc.Candidate.StartTime, End: rc.Candidate.EndTime}

	for _, existing := range rc.Existing {
		if existing.ID == rc.Candidate.ID {
			continue
		}
		if existing.StaffID != rc.Candidate.StaffID {
			continue
		}
		// 终态的排班不参与冲突检测
		if existing.Status.IsTerminal() {
			continue
		}

		window := Window{Start: existing.StartTime, End: existing.EndTime}
		if Overlaps(candidate, window, rc.BufferMinutes) {
			return &Violation{
				Rule:  RuleOverlap,
				Field: "startTime",
				Message: fmt.Sprintf(
					"与 %s 开始的排班冲突（含 %d 分钟缓冲）",
					existing.StartTime.Format("2006-01-02 15:04"), rc.BufferMinutes,
				),
			}
		}
	}

	return nil
}

func checkRestPeriod(rc *RuleContext) *Violation {
	// 找到候选排班开始前最近一次已完成的排班
	var latest *domain.Assignment
	for _, existing := range rc.Existing {
		if existing.StaffID != rc.Candidate.StaffID {
			continue
		}
		if existing.Status != domain.StatusCompleted {
			continue
		}
		if existing.EndTime.After(rc.Candidate.StartTime) {
			continue
		}
		if latest == nil || existing.EndTime.After(latest.EndTime) {
			latest = existing
		}
	}

	// 没有历史排班时本规则自动通过
	if latest == nil {
		return nil
	}

	if rest := RestHours(latest.EndTime, rc.Candidate.StartTime); rest < rc.Policy.MinRestHours {
		return &Violation{
			Rule:  RuleRestPeriod,
			Field: "startTime",
			Message: fmt.Sprintf(
				"距上一次排班结束仅 %.1f 小时，不足最低休息时长 %.0f 小时",
				rest, rc.Policy.MinRestHours,
			),
		}
	}

	return nil
}

func checkConsecutiveOccurrence(rc *RuleContext) *Violation {
	window := Window{Start: rc.Candidate.StartTime, End: rc.Candidate.EndTime}
	if !coversWeekend(window) {
		return nil
	}

	run := CountConsecutiveWeekends(rc.Candidate, rc.Existing)
	if int32(run) > rc.Policy.MaxConsecutiveOn {
		return &Violation{
			Rule:  RuleConsecutiveOccurrence,
			Field: "startTime",
			Message: fmt.Sprintf(
				"已连续 %d 个周末值班，超过上限 %d 个",
				run, rc.Policy.MaxConsecutiveOn,
			),
		}
	}

	return nil
}
