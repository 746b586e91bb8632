package repository

import (
	"context"
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

func (r *Repository) GetStaffByID(id int64) (*domain.Staff, error) {
	query := `
		SELECT username, password_hash, full_name, email, role, scope_id, is_active, created_at, version
		FROM staff WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	staff := &domain.Staff{
		ID: id,
	}

	dst := []any{&staff.Username, &staff.PasswordHash, &staff.FullName, &staff.Email, &staff.Role, &staff.ScopeID, &staff.IsActive, &staff.CreatedAt, &staff.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return staff, nil
}

func (r *Repository) GetStaffByUsername(username string) (*domain.Staff, error) {
	query := `
		SELECT id, password_hash, full_name, email, role, scope_id, is_active, created_at, version
		FROM staff WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	staff := &domain.Staff{
		Username: username,
	}

	dst := []any{&staff.ID, &staff.PasswordHash, &staff.FullName, &staff.Email, &staff.Role, &staff.ScopeID, &staff.IsActive, &staff.CreatedAt, &staff.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return staff, nil
}

func (r *Repository) GetAllStaff() ([]*domain.Staff, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, scope_id, is_active, created_at, version FROM staff
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staffs := make([]*domain.Staff, 0)
	for rows.Next() {
		staff := &domain.Staff{}
		dst := []any{&staff.ID, &staff.Username, &staff.PasswordHash, &staff.FullName, &staff.Email, &staff.Role, &staff.ScopeID, &staff.IsActive, &staff.CreatedAt, &staff.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		staffs = append(staffs, staff)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return staffs, nil
}

func (r *Repository) GetActiveStaffByScope(scopeID string) ([]*domain.Staff, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, scope_id, is_active, created_at, version
		FROM staff WHERE scope_id = $1 AND is_active = true
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staffs := make([]*domain.Staff, 0)
	for rows.Next() {
		staff := &domain.Staff{}
		dst := []any{&staff.ID, &staff.Username, &staff.PasswordHash, &staff.FullName, &staff.Email, &staff.Role, &staff.ScopeID, &staff.IsActive, &staff.CreatedAt, &staff.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		staffs = append(staffs, staff)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return staffs, nil
}

func (r *Repository) CreateStaff(staff *domain.Staff) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO staff (username, password_hash, full_name, email, role, scope_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, version
	`

	args := []any{staff.Username, staff.PasswordHash, staff.FullName, staff.Email, staff.Role, staff.ScopeID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&staff.ID, &staff.IsActive, &staff.CreatedAt, &staff.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteStaff(id int64) error {
	query := `
		DELETE FROM staff WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateStaff(staff *domain.Staff) error {
	query := `
		UPDATE staff
		SET
			password_hash = $1,
			email = $2,
			role = $3,
			scope_id = $4,
			is_active = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING username, full_name, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{staff.PasswordHash, staff.Email, staff.Role, staff.ScopeID, staff.IsActive, staff.ID, staff.Version}
	dst := []any{&staff.Username, &staff.FullName, &staff.CreatedAt, &staff.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}
