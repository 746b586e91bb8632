package engine

import (
	"fmt"
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

const (
	RuleDistinctParties = "distinct_parties"
	RuleShiftOwnership  = "shift_ownership"
	RulePendingLimit    = "pending_limit"
	RuleLicenseRank     = "license_rank"
	RuleWeeklyOvertime  = "weekly_overtime"
)

// SwapContext 发起换班申请时的校验输入
// ReplacementExisting 是替班人相关时间范围内的全部排班，PendingCount 是
// 申请人当前未处理的其它换班申请数量
type SwapContext struct {
	Shift               *domain.Assignment
	Requester           *domain.Staff
	Replacement         *domain.Staff
	ReplacementExisting []*domain.Assignment
	PendingCount        int
	MaxPending          int
	Policy              *domain.Policy
	Now                 time.Time
	BufferMinutes       int
}

// ValidateSwapRequest 换班申请的准入校验
// 先检查换班特有的规则，再把班次套到替班人身上走一遍通用校验管道
// （冲突、休息、连续周末等），同样是快速失败
func ValidateSwapRequest(sc *SwapContext) *Violation {
	if sc.Requester.ID == sc.Replacement.ID {
		return &Violation{Rule: RuleDistinctParties, Field: "toStaffID", Message: "不能和自己换班"}
	}

	if sc.Shift.StaffID != sc.Requester.ID {
		return &Violation{Rule: RuleShiftOwnership, Field: "assignmentID", Message: "只能换出属于自己的班次"}
	}
	if sc.Shift.Status.IsTerminal() {
		return &Violation{Rule: RuleShiftOwnership, Field: "assignmentID", Message: "该班次已终止，无法换班"}
	}

	if sc.PendingCount >= sc.MaxPending {
		return &Violation{
			Rule:    RulePendingLimit,
			Field:   "fromStaffID",
			Message: fmt.Sprintf("未处理的换班申请不能超过 %d 条", sc.MaxPending),
		}
	}

	if notice := sc.Shift.StartTime.Sub(sc.Now).Hours(); notice < sc.Policy.MinAdvanceNoticeHours {
		return &Violation{
			Rule:    RuleAdvanceNotice,
			Field:   "assignmentID",
			Message: fmt.Sprintf("换班申请必须在班次开始前 %.0f 小时提出", sc.Policy.MinAdvanceNoticeHours),
		}
	}

	// 替班人的执业等级不能低于申请人
	if sc.Replacement.Role.Rank() < sc.Requester.Role.Rank() {
		return &Violation{
			Rule:    RuleLicenseRank,
			Field:   "toStaffID",
			Message: fmt.Sprintf("替班人等级（%s）不能低于申请人（%s）", sc.Replacement.Role, sc.Requester.Role),
		}
	}

	if v := checkWeeklyOvertime(sc); v != nil {
		return v
	}

	// 把班次视为替班人的候选排班，复用通用校验管道
	candidate := *sc.Shift
	candidate.StaffID = sc.Replacement.ID
	candidate.StaffName = sc.Replacement.FullName

	return Validate(&RuleContext{
		Candidate:     &candidate,
		Existing:      sc.ReplacementExisting,
		Policy:        sc.Policy,
		Now:           sc.Now,
		BufferMinutes: sc.BufferMinutes,
	})
}

// checkWeeklyOvertime 接班后替班人在班次所在周的总工时不能超过加班上限
// 跨周的排班只统计落在班次所在周内的部分
func checkWeeklyOvertime(sc *SwapContext) *Violation {
	if sc.Policy.WeeklyOvertimeCeilingHours <= 0 {
		return nil
	}

	weekStart := weekStartOf(sc.Shift.StartTime)
	weekEnd := weekStart.AddDate(0, 0, 7)
	week := Window{Start: weekStart, End: weekEnd}

	total := HoursWithin(week, sc.Shift.StartTime, sc.Shift.EndTime)
	for _, a := range sc.ReplacementExisting {
		if a.StaffID != sc.Replacement.ID || a.Status.IsTerminal() {
			continue
		}
		total += HoursWithin(week, a.StartTime, a.EndTime)
	}

	if total > sc.Policy.WeeklyOvertimeCeilingHours {
		return &Violation{
			Rule:  RuleWeeklyOvertime,
			Field: "toStaffID",
			Message: fmt.Sprintf(
				"接班后当周总工时 %.1f 小时，超过加班上限 %.0f 小时",
				total, sc.Policy.WeeklyOvertimeCeilingHours,
			),
		}
	}

	return nil
}

// Reassignment 审批通过后需要执行的改派指令
// 引擎只返回指令，底层排班记录的改写由调用方完成
type Reassignment struct {
	AssignmentID int64
	NewStaffID   int64
	NewStaffName string
}

// ApproveSwap 批准换班：pending -> approved，返回改派指令
func ApproveSwap(req *domain.SwapRequest, replacement *domain.Staff, reviewer *domain.Staff, now time.Time) (*Reassignment, error) {
	if !reviewer.Role.CanReview() {
		return nil, ErrNotAuthorized
	}
	if req.Status != domain.SwapPending {
		return nil, ErrInvalidState
	}

	req.Status = domain.SwapApproved
	req.ReviewedAt = &now
	req.ReviewedBy = &reviewer.ID

	return &Reassignment{
		AssignmentID: req.AssignmentID,
		NewStaffID:   replacement.ID,
		NewStaffName: replacement.FullName,
	}, nil
}

// RejectSwap 驳回换班：pending -> rejected，必须填写理由
func RejectSwap(req *domain.SwapRequest, reviewer *domain.Staff, reason string, now time.Time) error {
	if !reviewer.Role.CanReview() {
		return ErrNotAuthorized
	}
	if req.Status != domain.SwapPending {
		return ErrInvalidState
	}
	if reason == "" {
		return ErrReasonRequired
	}

	req.Status = domain.SwapRejected
	req.ReviewedAt = &now
	req.ReviewedBy = &reviewer.ID
	req.RejectionReason = reason

	return nil
}

// WithdrawSwap 撤回换班：pending -> cancelled，只有申请人本人可以操作
func WithdrawSwap(req *domain.SwapRequest, actorID int64, now time.Time) error {
	if req.FromStaffID != actorID {
		return ErrNotRequester
	}
	if req.Status != domain.SwapPending {
		return ErrInvalidState
	}

	req.Status = domain.SwapCancelled
	req.ReviewedAt = &now

	return nil
}
