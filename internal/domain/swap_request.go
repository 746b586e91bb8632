package domain

import "time"

type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapApproved  SwapStatus = "approved"
	SwapRejected  SwapStatus = "rejected"
	SwapCancelled SwapStatus = "cancelled"
)

// SwapRequest 换班申请，由申请人发起，主管或管理员审批
// pending 之外的状态都是终态
type SwapRequest struct {
	ID              int64      `json:"id"`
	AssignmentID    int64      `json:"assignmentID"`
	FromStaffID     int64      `json:"fromStaffID"`
	ToStaffID       int64      `json:"toStaffID"`
	Reason          string     `json:"reason"`
	Status          SwapStatus `json:"status"`
	RequestedAt     time.Time  `json:"requestedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt"`
	ReviewedBy      *int64     `json:"reviewedBy"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	Version         int32      `json:"-"`
}
