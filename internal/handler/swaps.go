package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/engine"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/repository"
)

// loadSwapContext 组装换班校验所需的输入
// 发起和审批共用：审批时基于最新数据重新校验，申请提交后替班人的
// 排班可能已经发生变化
func (h *Handler) loadSwapContext(shift *domain.Assignment, requester *domain.Staff, replacement *domain.Staff) (*engine.SwapContext, error) {
	policy, err := h.repository.GetCurrentPolicy(shift.ScopeID)
	if err != nil {
		return nil, err
	}

	lookbackWeeks := int(policy.MaxConsecutiveOn) + 2
	from := shift.StartTime.AddDate(0, 0, -7*lookbackWeeks)
	to := shift.EndTime.AddDate(0, 0, 7)

	replacementExisting, err := h.repository.FindAssignmentsByStaff(replacement.ID, from, to)
	if err != nil {
		return nil, err
	}

	pendingCount, err := h.repository.CountPendingSwapsByStaff(requester.ID)
	if err != nil {
		return nil, err
	}

	return &engine.SwapContext{
		Shift:               shift,
		Requester:           requester,
		Replacement:         replacement,
		ReplacementExisting: replacementExisting,
		PendingCount:        pendingCount,
		MaxPending:          h.config.Engine.MaxPendingSwaps,
		Policy:              policy,
		Now:                 time.Now(),
		BufferMinutes:       h.config.Engine.OverlapBufferMinutes,
	}, nil
}

func (h *Handler) CreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)

	var req struct {
		AssignmentID int64  `json:"assignmentID" validate:"required"`
		ToStaffID    int64  `json:"toStaffID" validate:"required"`
		Reason       string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.repository.GetAssignmentByID(req.AssignmentID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排班不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	replacement, err := h.repository.GetStaffByID(req.ToStaffID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "替班人不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if !replacement.IsActive {
		h.errorResponse(w, r, "替班人已离职")
		return
	}

	sc, err := h.loadSwapContext(shift, myInfo, replacement)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该网点尚未配置排班策略")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if v := engine.ValidateSwapRequest(sc); v != nil {
		h.violationResponse(w, r, v)
		return
	}

	swapRequest := &domain.SwapRequest{
		AssignmentID: shift.ID,
		FromStaffID:  myInfo.ID,
		ToStaffID:    replacement.ID,
		Reason:       req.Reason,
		Status:       domain.SwapPending,
		RequestedAt:  time.Now(),
	}

	if err := h.repository.CreateSwapRequest(swapRequest); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "换班申请提交成功", swapRequest)
}

func (h *Handler) GetPendingSwapRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.repository.GetSwapRequestsByStatus(domain.SwapPending)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取待审批换班申请成功", requests)
}

func (h *Handler) GetSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)
	swapRequest := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	if swapRequest.FromStaffID != myInfo.ID && swapRequest.ToStaffID != myInfo.ID && !myInfo.Role.CanReview() {
		h.errorResponse(w, r, "权限不足")
		return
	}

	h.successResponse(w, r, "获取换班申请成功", swapRequest)
}

func (h *Handler) ApproveSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)
	swapRequest := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	shift, err := h.repository.GetAssignmentByID(swapRequest.AssignmentID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	requester, err := h.repository.GetStaffByID(swapRequest.FromStaffID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	replacement, err := h.repository.GetStaffByID(swapRequest.ToStaffID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 审批时基于最新数据重新校验替班人的冲突和工时
	sc, err := h.loadSwapContext(shift, requester, replacement)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	// 申请本身已经占用了一个待审批名额，不应该挡住自己的审批
	sc.PendingCount = 0

	if v := engine.ValidateSwapRequest(sc); v != nil {
		h.violationResponse(w, r, v)
		return
	}

	instruction, err := engine.ApproveSwap(swapRequest, replacement, myInfo, time.Now())
	if err != nil {
		h.swapStateError(w, r, err)
		return
	}

	if err := h.repository.ReassignAssignment(shift, instruction.NewStaffID, instruction.NewStaffName); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			h.errorResponse(w, r, "替班人的排班刚发生变化，请重新审批")
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排班已被他人修改，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.repository.UpdateSwapRequest(swapRequest); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 批准后申请人和替班人都要收到通知
	h.notifySwapResult(swapRequest, requester, shift)
	h.notifySwapResult(swapRequest, replacement, shift)

	h.successResponse(w, r, "换班申请已批准", swapRequest)
}

func (h *Handler) RejectSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)
	swapRequest := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := engine.RejectSwap(swapRequest, myInfo, req.Reason, time.Now()); err != nil {
		h.swapStateError(w, r, err)
		return
	}

	if err := h.repository.UpdateSwapRequest(swapRequest); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	requester, err := h.repository.GetStaffByID(swapRequest.FromStaffID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	shift, err := h.repository.GetAssignmentByID(swapRequest.AssignmentID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.notifySwapResult(swapRequest, requester, shift)

	h.successResponse(w, r, "换班申请已驳回", swapRequest)
}

func (h *Handler) WithdrawSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)
	swapRequest := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	if err := engine.WithdrawSwap(swapRequest, myInfo.ID, time.Now()); err != nil {
		h.swapStateError(w, r, err)
		return
	}

	if err := h.repository.UpdateSwapRequest(swapRequest); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "换班申请已撤回", swapRequest)
}

// swapStateError 把引擎的状态机错误翻译成客户端提示
func (h *Handler) swapStateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidState):
		h.errorResponse(w, r, "该换班申请已处理，不能重复操作")
	case errors.Is(err, engine.ErrNotAuthorized):
		h.errorResponse(w, r, "权限不足")
	case errors.Is(err, engine.ErrReasonRequired):
		h.errorResponse(w, r, "驳回换班申请必须填写理由")
	case errors.Is(err, engine.ErrNotRequester):
		h.errorResponse(w, r, "只有申请人本人可以撤回")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) notifySwapResult(swapRequest *domain.SwapRequest, recipient *domain.Staff, shift *domain.Assignment) {
	h.publishMail(domain.MailMessage{
		Type: "swap_result",
		To:   recipient.Email,
		Data: domain.SwapResultMailData{
			FullName:        recipient.FullName,
			Approved:        swapRequest.Status == domain.SwapApproved,
			ShiftStartTime:  shift.StartTime.Format("2006-01-02 15:04"),
			RejectionReason: swapRequest.RejectionReason,
		},
	})
}
