package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/repository"
)

// policyRequest 创建和更新策略共用的请求体
// 上限类字段为 0 时表示不限制
type policyRequest struct {
	MinAdvanceNoticeHours      float64         `json:"minAdvanceNoticeHours" validate:"gte=0"`
	MaxAdvanceNoticeHours      float64         `json:"maxAdvanceNoticeHours" validate:"gte=0"`
	MinDurationHours           float64         `json:"minDurationHours" validate:"gt=0"`
	MaxDurationHours           float64         `json:"maxDurationHours" validate:"gte=0"`
	MinRestHours               float64         `json:"minRestHours" validate:"gte=0"`
	MaxConsecutiveOn           int32           `json:"maxConsecutiveOn" validate:"gte=1"`
	WeeklyOvertimeCeilingHours float64         `json:"weeklyOvertimeCeilingHours" validate:"gte=0"`
	MaxPreparationsPerShift    int32           `json:"maxPreparationsPerShift" validate:"gte=0"`
	PreparationBreakHours      decimal.Decimal `json:"preparationBreakHours"`
}

func (req *policyRequest) toPolicy(scopeID string) *domain.Policy {
	return &domain.Policy{
		ScopeID:                    scopeID,
		MinAdvanceNoticeHours:      req.MinAdvanceNoticeHours,
		MaxAdvanceNoticeHours:      req.MaxAdvanceNoticeHours,
		MinDurationHours:           req.MinDurationHours,
		MaxDurationHours:           req.MaxDurationHours,
		MinRestHours:               req.MinRestHours,
		MaxConsecutiveOn:           req.MaxConsecutiveOn,
		WeeklyOvertimeCeilingHours: req.WeeklyOvertimeCeilingHours,
		MaxPreparationsPerShift:    req.MaxPreparationsPerShift,
		PreparationBreakHours:      req.PreparationBreakHours,
	}
}

func (h *Handler) GetCurrentPolicy(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scope")

	policy, err := h.repository.GetCurrentPolicy(scopeID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该网点尚未配置排班策略")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取当前策略成功", policy)
}

func (h *Handler) GetPolicyHistory(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scope")

	policies, err := h.repository.GetPolicyHistory(scopeID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取策略历史成功", policies)
}

func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scope")

	var req policyRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 已有生效策略时只能走版本更新，防止出现两条 is_current 记录
	if _, err := h.repository.GetCurrentPolicy(scopeID); err == nil {
		h.errorResponse(w, r, "该网点已有生效策略，请使用版本更新接口")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.internalServerError(w, r, err)
		return
	}

	policy := req.toPolicy(scopeID)
	if err := h.repository.CreatePolicy(policy); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "策略创建成功", policy)
}

func (h *Handler) SupersedePolicy(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scope")

	var req policyRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	policy := req.toPolicy(scopeID)
	if err := h.repository.SupersedePolicy(policy); err != nil {
		switch {
		case errors.Is(err, repository.ErrNoCurrentPolicy):
			h.errorResponse(w, r, "该网点尚未配置排班策略")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "策略更新成功", policy)
}
