package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/engine"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/repository"
)

// loadRuleContext 组装一次校验所需的策略和历史排班
// 回看窗口要覆盖连续周末计数和休息时长校验所需的历史，向前多取一周
// 以覆盖缓冲时间内的冲突
func (h *Handler) loadRuleContext(candidate *domain.Assignment, scopeID string) (*engine.RuleContext, error) {
	policy, err := h.repository.GetCurrentPolicy(scopeID)
	if err != nil {
		return nil, err
	}

	lookbackWeeks := int(policy.MaxConsecutiveOn) + 2
	from := candidate.StartTime.AddDate(0, 0, -7*lookbackWeeks)
	to := candidate.EndTime.AddDate(0, 0, 7)

	existing, err := h.repository.FindAssignmentsByStaff(candidate.StaffID, from, to)
	if err != nil {
		return nil, err
	}

	return &engine.RuleContext{
		Candidate:     candidate,
		Existing:      existing,
		Policy:        policy,
		Now:           time.Now(),
		BufferMinutes: h.config.Engine.OverlapBufferMinutes,
	}, nil
}

func (h *Handler) ProposeAssignment(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)

	var req struct {
		StaffID        int64           `json:"staffID"`
		Kind           string          `json:"kind" validate:"required,oneof=on_call shift preparation dispatch"`
		StartTime      time.Time       `json:"startTime" validate:"required"`
		EndTime        time.Time       `json:"endTime" validate:"required"`
		CaseRef        string          `json:"caseRef"`
		VehicleID      *int64          `json:"vehicleID"`
		EstimatedHours decimal.Decimal `json:"estimatedHours"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 不填 staffID 时默认为本人；给他人排班需要审批权限
	if req.StaffID == 0 {
		req.StaffID = myInfo.ID
	}
	if req.StaffID != myInfo.ID && !myInfo.Role.CanReview() {
		h.errorResponse(w, r, "只能为本人提交排班")
		return
	}

	staff := myInfo
	if req.StaffID != myInfo.ID {
		var err error
		staff, err = h.repository.GetStaffByID(req.StaffID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "员工不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
	}
	if !staff.IsActive {
		h.errorResponse(w, r, "该员工已离职")
		return
	}

	kind := domain.AssignmentKind(req.Kind)
	if (kind == domain.KindPreparation || kind == domain.KindDispatch) && req.CaseRef == "" {
		h.badRequest(w, r, errors.New("入殓和接运类排班必须填写业务单号"))
		return
	}
	if kind == domain.KindDispatch && req.VehicleID == nil {
		h.badRequest(w, r, errors.New("接运类排班必须指定车辆"))
		return
	}

	candidate := &domain.Assignment{
		StaffID:        staff.ID,
		StaffName:      staff.FullName,
		ScopeID:        staff.ScopeID,
		Kind:           kind,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         domain.StatusScheduled,
		CaseRef:        req.CaseRef,
		VehicleID:      req.VehicleID,
		EstimatedHours: req.EstimatedHours,
	}

	rc, err := h.loadRuleContext(candidate, staff.ScopeID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该网点尚未配置排班策略")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if v := engine.Validate(rc); v != nil {
		h.violationResponse(w, r, v)
		return
	}

	if err := h.repository.CreateAssignment(candidate); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			// 校验和写入之间有并发写入抢先，基于最新数据重新校验后告知调用方
			h.retryAfterConflict(w, r, candidate, staff.ScopeID)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "排班提交成功", candidate)
}

// retryAfterConflict 排它约束拒绝写入后基于最新数据重新校验，
// 把新的冲突详情返回给调用方
func (h *Handler) retryAfterConflict(w http.ResponseWriter, r *http.Request, candidate *domain.Assignment, scopeID string) {
	rc, err := h.loadRuleContext(candidate, scopeID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if v := engine.Validate(rc); v != nil {
		h.violationResponse(w, r, v)
		return
	}

	h.errorResponse(w, r, "该时段刚被其他排班占用，请重新提交")
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	assignment := r.Context().Value(AssignmentCtx).(*domain.Assignment)
	h.successResponse(w, r, "获取排班成功", assignment)
}

func (h *Handler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)
	assignment := r.Context().Value(AssignmentCtx).(*domain.Assignment)

	var req struct {
		Status string `json:"status" validate:"required,oneof=scheduled confirmed in_progress completed cancelled no_show"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if assignment.StaffID != myInfo.ID && !myInfo.Role.CanReview() {
		h.errorResponse(w, r, "只能操作本人的排班")
		return
	}

	next := domain.AssignmentStatus(req.Status)
	if !assignment.Status.CanTransitionTo(next) {
		h.errorResponse(w, r, "非法的状态变更")
		return
	}

	assignment.Status = next
	if err := h.repository.UpdateAssignmentStatus(assignment); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新排班状态失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 确认排班后给当班员工发送通知邮件
	if next == domain.StatusConfirmed {
		h.notifyAssignmentAccepted(assignment)
	}

	h.successResponse(w, r, "更新排班状态成功", assignment)
}

func (h *Handler) notifyAssignmentAccepted(assignment *domain.Assignment) {
	staff, err := h.repository.GetStaffByID(assignment.StaffID)
	if err != nil {
		// 查不到收件人只能放弃通知，排班状态本身已经更新成功
		return
	}

	h.publishMail(domain.MailMessage{
		Type: "assignment_accepted",
		To:   staff.Email,
		Data: domain.AssignmentAcceptedMailData{
			FullName:  staff.FullName,
			Kind:      string(assignment.Kind),
			StartTime: assignment.StartTime.Format("2006-01-02 15:04"),
			EndTime:   assignment.EndTime.Format("2006-01-02 15:04"),
		},
	})
}

// ListAssignments 按员工和时间范围查询排班
// 不指定 staff 时查询本人；查询他人需要审批权限
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)

	staffID := myInfo.ID
	if staffParam := r.URL.Query().Get("staff"); staffParam != "" {
		parsed, err := strconv.ParseInt(staffParam, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "员工ID无效")
			return
		}
		staffID = parsed
	}
	if staffID != myInfo.ID && !myInfo.Role.CanReview() {
		h.errorResponse(w, r, "只能查询本人的排班")
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 90)
	if fromParam := r.URL.Query().Get("from"); fromParam != "" {
		parsed, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			h.errorResponse(w, r, "开始时间格式错误")
			return
		}
		from = parsed
	}
	if toParam := r.URL.Query().Get("to"); toParam != "" {
		parsed, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			h.errorResponse(w, r, "结束时间格式错误")
			return
		}
		to = parsed
	}

	assignments, err := h.repository.FindAssignmentsByStaff(staffID, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班列表成功", assignments)
}

// CreatePreparation 在既有班次内追加一项入殓任务
// 任务时段即班次时段，不参与员工时段互斥，只做数量和工时的容量校验
func (h *Handler) CreatePreparation(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)
	shift := r.Context().Value(AssignmentCtx).(*domain.Assignment)

	var req struct {
		CaseRef        string          `json:"caseRef" validate:"required"`
		EstimatedHours decimal.Decimal `json:"estimatedHours"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !req.EstimatedHours.IsPositive() {
		h.badRequest(w, r, errors.New("预估工时必须大于 0"))
		return
	}

	if shift.StaffID != myInfo.ID && !myInfo.Role.CanReview() {
		h.errorResponse(w, r, "只能操作本人的排班")
		return
	}
	if shift.Kind != domain.KindShift && shift.Kind != domain.KindOnCall {
		h.errorResponse(w, r, "只能在班次或值班内追加入殓任务")
		return
	}
	if shift.Status.IsTerminal() {
		h.errorResponse(w, r, "该班次已终止")
		return
	}

	policy, err := h.repository.GetCurrentPolicy(shift.ScopeID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该网点尚未配置排班策略")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 统计班次内已承接的入殓任务
	inWindow, err := h.repository.FindAssignmentsByStaff(shift.StaffID, shift.StartTime, shift.EndTime)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	existingCount := 0
	existingSum := decimal.Zero
	for _, a := range inWindow {
		if a.Kind != domain.KindPreparation || a.Status.IsTerminal() {
			continue
		}
		existingCount++
		existingSum = existingSum.Add(a.EstimatedHours)
	}

	ceilingSum := decimal.NewFromFloat(shift.EndTime.Sub(shift.StartTime).Hours())
	if v := engine.CheckCapacity(existingCount, existingSum, req.EstimatedHours, policy.MaxPreparationsPerShift, ceilingSum, policy.PreparationBreakHours); v != nil {
		h.violationResponse(w, r, v)
		return
	}

	preparation := &domain.Assignment{
		StaffID:        shift.StaffID,
		StaffName:      shift.StaffName,
		ScopeID:        shift.ScopeID,
		Kind:           domain.KindPreparation,
		StartTime:      shift.StartTime,
		EndTime:        shift.EndTime,
		Status:         domain.StatusScheduled,
		CaseRef:        req.CaseRef,
		EstimatedHours: req.EstimatedHours,
	}

	if err := h.repository.CreateAssignment(preparation); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "入殓任务追加成功", preparation)
}
