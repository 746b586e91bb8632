package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/engine"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/repository"
)

type rotationRequest struct {
	Type       string    `json:"type" validate:"required"`
	OnWeeks    []int     `json:"onWeeks"`
	ScopeID    string    `json:"scopeID" validate:"required"`
	CycleStart time.Time `json:"cycleStart" validate:"required"`
}

type rotationPreview struct {
	Pattern       *engine.RotationPattern `json:"pattern"`
	PercentageOn  float64                 `json:"percentageOn"`
	FairnessScore float64                 `json:"fairnessScore"`
	RosterSize    int                     `json:"rosterSize"`
	Assignments   []*domain.Assignment    `json:"assignments"`

	blocks []*engine.WeekendBlock
}

// buildRotation 编译轮换模式并展开为排班候选
// cycleStart 必须是周一零点，否则展开出来的周末日期会错位
func (h *Handler) buildRotation(req *rotationRequest) (*rotationPreview, *engine.Violation, error) {
	pattern, v := engine.GeneratePattern(engine.PatternType(req.Type), req.OnWeeks)
	if v != nil {
		return nil, v, nil
	}

	roster, err := h.repository.GetActiveStaffByScope(req.ScopeID)
	if err != nil {
		return nil, nil, err
	}

	blocks := engine.ExpandPattern(pattern, roster, req.CycleStart)

	assignments := make([]*domain.Assignment, 0, len(blocks)*3)
	for _, block := range blocks {
		assignments = append(assignments, block.Assignments...)
	}

	return &rotationPreview{
		Pattern:       pattern,
		PercentageOn:  pattern.PercentageOn(),
		FairnessScore: pattern.FairnessScore(),
		RosterSize:    len(roster),
		Assignments:   assignments,

		blocks: blocks,
	}, nil, nil
}

func (h *Handler) PreviewRotation(w http.ResponseWriter, r *http.Request) {
	var req rotationRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.CycleStart.Weekday() != time.Monday {
		h.badRequest(w, r, errors.New("轮换周期必须从周一开始"))
		return
	}

	preview, v, err := h.buildRotation(&req)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if v != nil {
		h.violationResponse(w, r, v)
		return
	}

	h.successResponse(w, r, "轮换预览生成成功", preview)
}

type rotationApplyResult struct {
	Accepted []*domain.Assignment `json:"accepted"`
	Rejected []rotationRejection  `json:"rejected"`
}

type rotationRejection struct {
	Assignments []*domain.Assignment `json:"assignments"`
	Violation   *engine.Violation    `json:"violation"`
}

// ApplyRotation 展开轮换并逐个周末块过校验管道：整个周末折叠成一个
// 连续时段整体校验，相邻模式日共享边界不构成冲突，通过后逐日落库。
// 不通过的块连同违反的规则一起返回，不会因为个别冲突整批失败
func (h *Handler) ApplyRotation(w http.ResponseWriter, r *http.Request) {
	var req rotationRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.CycleStart.Weekday() != time.Monday {
		h.badRequest(w, r, errors.New("轮换周期必须从周一开始"))
		return
	}

	preview, v, err := h.buildRotation(&req)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if v != nil {
		h.violationResponse(w, r, v)
		return
	}

	result := &rotationApplyResult{
		Accepted: []*domain.Assignment{},
		Rejected: []rotationRejection{},
	}

	for _, block := range preview.blocks {
		rc, err := h.loadRuleContext(block.Span(), req.ScopeID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		if v := engine.Validate(rc); v != nil {
			result.Rejected = append(result.Rejected, rotationRejection{Assignments: block.Assignments, Violation: v})
			continue
		}

		for _, candidate := range block.Assignments {
			if err := h.repository.CreateAssignment(candidate); err != nil {
				switch {
				case errors.Is(err, repository.ErrConflict):
					result.Rejected = append(result.Rejected, rotationRejection{
						Assignments: []*domain.Assignment{candidate},
						Violation: &engine.Violation{
							Rule:    engine.RuleOverlap,
							Field:   "startTime",
							Message: "该时段刚被并发写入占用",
						},
					})
					continue
				default:
					h.internalServerError(w, r, err)
					return
				}
			}

			result.Accepted = append(result.Accepted, candidate)
		}
	}

	h.successResponse(w, r, "轮换应用完成", result)
}
