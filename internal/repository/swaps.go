package repository

import (
	"context"
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

func (r *Repository) CreateSwapRequest(req *domain.SwapRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO swap_requests (assignment_id, from_staff_id, to_staff_id, reason, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version
	`

	args := []any{req.AssignmentID, req.FromStaffID, req.ToStaffID, req.Reason, req.Status, req.RequestedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.ID, &req.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSwapRequestByID(id int64) (*domain.SwapRequest, error) {
	query := `
		SELECT assignment_id, from_staff_id, to_staff_id, reason, status, requested_at, reviewed_at, reviewed_by, rejection_reason, version
		FROM swap_requests WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	req := &domain.SwapRequest{
		ID: id,
	}

	dst := []any{&req.AssignmentID, &req.FromStaffID, &req.ToStaffID, &req.Reason, &req.Status, &req.RequestedAt, &req.ReviewedAt, &req.ReviewedBy, &req.RejectionReason, &req.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return req, nil
}

func (r *Repository) GetSwapRequestsByStatus(status domain.SwapStatus) ([]*domain.SwapRequest, error) {
	query := `
		SELECT id, assignment_id, from_staff_id, to_staff_id, reason, status, requested_at, reviewed_at, reviewed_by, rejection_reason, version
		FROM swap_requests WHERE status = $1
		ORDER BY requested_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*domain.SwapRequest{}
	for rows.Next() {
		req := &domain.SwapRequest{}
		dst := []any{&req.ID, &req.AssignmentID, &req.FromStaffID, &req.ToStaffID, &req.Reason, &req.Status, &req.RequestedAt, &req.ReviewedAt, &req.ReviewedBy, &req.RejectionReason, &req.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *Repository) GetSwapRequestsByStaff(staffID int64) ([]*domain.SwapRequest, error) {
	query := `
		SELECT id, assignment_id, from_staff_id, to_staff_id, reason, status, requested_at, reviewed_at, reviewed_by, rejection_reason, version
		FROM swap_requests WHERE from_staff_id = $1 OR to_staff_id = $1
		ORDER BY requested_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*domain.SwapRequest{}
	for rows.Next() {
		req := &domain.SwapRequest{}
		dst := []any{&req.ID, &req.AssignmentID, &req.FromStaffID, &req.ToStaffID, &req.Reason, &req.Status, &req.RequestedAt, &req.ReviewedAt, &req.ReviewedBy, &req.RejectionReason, &req.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// CountPendingSwapsByStaff 统计员工未处理的换班申请数量，用于限制重复提交
func (r *Repository) CountPendingSwapsByStaff(staffID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM swap_requests WHERE from_staff_id = $1 AND status = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var count int
	if err := r.dbpool.QueryRowContext(ctx, query, staffID, domain.SwapPending).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// UpdateSwapRequest 持久化审批或撤回的结果，乐观锁防止两个审批人同时处理同一申请
func (r *Repository) UpdateSwapRequest(req *domain.SwapRequest) error {
	query := `
		UPDATE swap_requests
		SET
			status = $1,
			reviewed_at = $2,
			reviewed_by = $3,
			rejection_reason = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{req.Status, req.ReviewedAt, req.ReviewedBy, req.RejectionReason, req.ID, req.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.Version); err != nil {
		return err
	}

	return nil
}
