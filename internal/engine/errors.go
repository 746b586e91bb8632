package engine

import "errors"

// Violation 表示候选排班违反了某条业务规则
// Rule 是规则的稳定标识，Message 直接展示给用户
type Violation struct {
	Rule    string `json:"rule"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (v *Violation) Error() string {
	return v.Message
}

var (
	// ErrInvalidState 换班申请不处于 pending 状态时的任何审批操作
	ErrInvalidState = errors.New("换班申请已被处理，无法再次操作")
	// ErrNotAuthorized 审批人角色不在授权范围内
	ErrNotAuthorized = errors.New("当前角色无权审批换班申请")
	// ErrReasonRequired 驳回换班申请时必须填写理由
	ErrReasonRequired = errors.New("驳回换班申请必须填写理由")
	// ErrNotRequester 只有申请人本人可以撤回换班申请
	ErrNotRequester = errors.New("只有申请人本人可以撤回换班申请")
)
