package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

// CreateAssignment 持久化一条校验通过的排班
// 数据库上的排它约束保证同一员工的非终态排班时段互不重叠，校验和写入
// 之间被并发写入抢先时返回 ErrConflict，调用方需要重新校验
func (r *Repository) CreateAssignment(a *domain.Assignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO assignments (staff_id, staff_name, scope_id, kind, start_time, end_time, status, case_ref, vehicle_id, estimated_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, version
	`

	args := []any{a.StaffID, a.StaffName, a.ScopeID, a.Kind, a.StartTime, a.EndTime, a.Status, a.CaseRef, a.VehicleID, a.EstimatedHours}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.Version); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "assignments_staff_window_excl" {
			return ErrConflict
		}
		return err
	}

	return nil
}

func (r *Repository) GetAssignmentByID(id int64) (*domain.Assignment, error) {
	query := `
		SELECT staff_id, staff_name, scope_id, kind, start_time, end_time, status, case_ref, vehicle_id, estimated_hours, created_at, version
		FROM assignments WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	a := &domain.Assignment{
		ID: id,
	}

	dst := []any{&a.StaffID, &a.StaffName, &a.ScopeID, &a.Kind, &a.StartTime, &a.EndTime, &a.Status, &a.CaseRef, &a.VehicleID, &a.EstimatedHours, &a.CreatedAt, &a.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return a, nil
}

// FindAssignmentsByStaff 查询某员工在时间范围内的全部排班
// 终态的排班一并返回，由校验管道自行按状态过滤
func (r *Repository) FindAssignmentsByStaff(staffID int64, from time.Time, to time.Time) ([]*domain.Assignment, error) {
	query := `
		SELECT id, staff_id, staff_name, scope_id, kind, start_time, end_time, status, case_ref, vehicle_id, estimated_hours, created_at, version
		FROM assignments
		WHERE staff_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []*domain.Assignment{}
	for rows.Next() {
		a := &domain.Assignment{}
		dst := []any{&a.ID, &a.StaffID, &a.StaffName, &a.ScopeID, &a.Kind, &a.StartTime, &a.EndTime, &a.Status, &a.CaseRef, &a.VehicleID, &a.EstimatedHours, &a.CreatedAt, &a.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *Repository) UpdateAssignmentStatus(a *domain.Assignment) error {
	query := `
		UPDATE assignments
		SET
			status = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, a.Status, a.ID, a.Version).Scan(&a.Version); err != nil {
		return err
	}

	return nil
}

// ReassignAssignment 换班审批通过后把排班改派给替班人
func (r *Repository) ReassignAssignment(a *domain.Assignment, newStaffID int64, newStaffName string) error {
	query := `
		UPDATE assignments
		SET
			staff_id = $1,
			staff_name = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING staff_id, staff_name, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{newStaffID, newStaffName, a.ID, a.Version}
	dst := []any{&a.StaffID, &a.StaffName, &a.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "assignments_staff_window_excl" {
			return ErrConflict
		}
		return err
	}

	return nil
}
