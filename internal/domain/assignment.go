package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssignmentKind string

const (
	KindOnCall      AssignmentKind = "on_call"     // 周末值班
	KindShift       AssignmentKind = "shift"       // 日常班次
	KindPreparation AssignmentKind = "preparation" // 入殓准备
	KindDispatch    AssignmentKind = "dispatch"    // 车辆接运
)

type AssignmentStatus string

const (
	StatusScheduled  AssignmentStatus = "scheduled"
	StatusConfirmed  AssignmentStatus = "confirmed"
	StatusInProgress AssignmentStatus = "in_progress"
	StatusCompleted  AssignmentStatus = "completed"
	StatusCancelled  AssignmentStatus = "cancelled"
	StatusNoShow     AssignmentStatus = "no_show"
)

// IsTerminal 终态的排班不再参与后续的冲突检测
func (s AssignmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusNoShow
}

// statusTransitions 排班状态只允许向前流转
var statusTransitions = map[AssignmentStatus][]AssignmentStatus{
	StatusScheduled:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusNoShow},
}

func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Assignment struct {
	ID        int64            `json:"id"`
	StaffID   int64            `json:"staffID"`
	StaffName string           `json:"staffName"`
	ScopeID   string           `json:"scopeID"`
	Kind      AssignmentKind   `json:"kind"`
	StartTime time.Time        `json:"startTime"`
	EndTime   time.Time        `json:"endTime"`
	Status    AssignmentStatus `json:"status"`
	// CaseRef 关联的业务单号，入殓和接运类排班必填
	CaseRef string `json:"caseRef,omitempty"`
	// VehicleID 接运类排班占用的车辆
	VehicleID *int64 `json:"vehicleID,omitempty"`
	// EstimatedHours 入殓类排班的预估工时，用于容量校验
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	CreatedAt      time.Time       `json:"createdAt"`
	Version        int32           `json:"-"`
}
