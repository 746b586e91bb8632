package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

func policyCacheKey(scopeID string) string {
	return fmt.Sprintf("policy_current_%s", scopeID)
}

// GetCurrentPolicy 返回网点当前生效的策略版本
// 先读 redis 缓存，未命中（或缓存不可用）时回源数据库并写回缓存
// 网点没有任何策略时返回 sql.ErrNoRows，调用方必须拒绝排班而不是使用默认值
func (r *Repository) GetCurrentPolicy(scopeID string) (*domain.Policy, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if cached, err := r.redisClient.Get(ctx, policyCacheKey(scopeID)).Result(); err == nil {
		policy := &domain.Policy{}
		if err := json.Unmarshal([]byte(cached), policy); err == nil {
			return policy, nil
		}
		// 缓存内容损坏时当作未命中，回源后覆盖
	}

	policy, err := r.getCurrentPolicyFromDB(scopeID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(policy); err == nil {
		// 写缓存失败不影响本次读取
		_ = r.redisClient.Set(ctx, policyCacheKey(scopeID), data, time.Duration(r.cfg.Engine.PolicyCacheExpiration)*time.Second).Err()
	}

	return policy, nil
}

func (r *Repository) getCurrentPolicyFromDB(scopeID string) (*domain.Policy, error) {
	query := `
		SELECT id, min_advance_notice_hours, max_advance_notice_hours, min_duration_hours, max_duration_hours,
			min_rest_hours, max_consecutive_on, weekly_overtime_ceiling_hours, max_preparations_per_shift,
			preparation_break_hours, valid_from, valid_to, is_current, created_at
		FROM policies
		WHERE scope_id = $1 AND is_current = true
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	policy := &domain.Policy{
		ScopeID: scopeID,
	}

	dst := []any{
		&policy.ID,
		&policy.MinAdvanceNoticeHours,
		&policy.MaxAdvanceNoticeHours,
		&policy.MinDurationHours,
		&policy.MaxDurationHours,
		&policy.MinRestHours,
		&policy.MaxConsecutiveOn,
		&policy.WeeklyOvertimeCeilingHours,
		&policy.MaxPreparationsPerShift,
		&policy.PreparationBreakHours,
		&policy.ValidFrom,
		&policy.ValidTo,
		&policy.IsCurrent,
		&policy.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, scopeID).Scan(dst...); err != nil {
		return nil, err
	}

	return policy, nil
}

// CreatePolicy 为网点写入第一个策略版本
func (r *Repository) CreatePolicy(policy *domain.Policy) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO policies (
			scope_id, min_advance_notice_hours, max_advance_notice_hours, min_duration_hours, max_duration_hours,
			min_rest_hours, max_consecutive_on, weekly_overtime_ceiling_hours, max_preparations_per_shift,
			preparation_break_hours, valid_from, is_current
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), true)
		RETURNING id, valid_from, is_current, created_at
	`

	args := []any{
		policy.ScopeID,
		policy.MinAdvanceNoticeHours,
		policy.MaxAdvanceNoticeHours,
		policy.MinDurationHours,
		policy.MaxDurationHours,
		policy.MinRestHours,
		policy.MaxConsecutiveOn,
		policy.WeeklyOvertimeCeilingHours,
		policy.MaxPreparationsPerShift,
		policy.PreparationBreakHours,
	}
	dst := []any{&policy.ID, &policy.ValidFrom, &policy.IsCurrent, &policy.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	r.invalidatePolicyCache(policy.ScopeID)

	return nil
}

// SupersedePolicy SCD2 更新：在同一个事务中关闭当前版本并插入新版本，
// 历史版本只封口不删除。成功后使缓存失效
func (r *Repository) SupersedePolicy(policy *domain.Policy) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	closeQuery := `
		UPDATE policies
		SET valid_to = NOW(), is_current = false
		WHERE scope_id = $1 AND is_current = true
	`
	result, err := tx.ExecContext(ctx, closeQuery, policy.ScopeID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// 没有可关闭的版本，说明该网点从未配置过策略
		return ErrNoCurrentPolicy
	}

	insertQuery := `
		INSERT INTO policies (
			scope_id, min_advance_notice_hours, max_advance_notice_hours, min_duration_hours, max_duration_hours,
			min_rest_hours, max_consecutive_on, weekly_overtime_ceiling_hours, max_preparations_per_shift,
			preparation_break_hours, valid_from, is_current
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), true)
		RETURNING id, valid_from, is_current, created_at
	`
	args := []any{
		policy.ScopeID,
		policy.MinAdvanceNoticeHours,
		policy.MaxAdvanceNoticeHours,
		policy.MinDurationHours,
		policy.MaxDurationHours,
		policy.MinRestHours,
		policy.MaxConsecutiveOn,
		policy.WeeklyOvertimeCeilingHours,
		policy.MaxPreparationsPerShift,
		policy.PreparationBreakHours,
	}
	dst := []any{&policy.ID, &policy.ValidFrom, &policy.IsCurrent, &policy.CreatedAt}
	if err := tx.QueryRowContext(ctx, insertQuery, args...).Scan(dst...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.invalidatePolicyCache(policy.ScopeID)

	return nil
}

// GetPolicyHistory 返回网点的全部策略版本，新版本在前
func (r *Repository) GetPolicyHistory(scopeID string) ([]*domain.Policy, error) {
	query := `
		SELECT id, min_advance_notice_hours, max_advance_notice_hours, min_duration_hours, max_duration_hours,
			min_rest_hours, max_consecutive_on, weekly_overtime_ceiling_hours, max_preparations_per_shift,
			preparation_break_hours, valid_from, valid_to, is_current, created_at
		FROM policies
		WHERE scope_id = $1
		ORDER BY valid_from DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := []*domain.Policy{}
	for rows.Next() {
		policy := &domain.Policy{ScopeID: scopeID}
		dst := []any{
			&policy.ID,
			&policy.MinAdvanceNoticeHours,
			&policy.MaxAdvanceNoticeHours,
			&policy.MinDurationHours,
			&policy.MaxDurationHours,
			&policy.MinRestHours,
			&policy.MaxConsecutiveOn,
			&policy.WeeklyOvertimeCeilingHours,
			&policy.MaxPreparationsPerShift,
			&policy.PreparationBreakHours,
			&policy.ValidFrom,
			&policy.ValidTo,
			&policy.IsCurrent,
			&policy.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return policies, nil
}

func (r *Repository) invalidatePolicyCache(scopeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Redis.OperationExpiration)*time.Second)
	defer cancel()

	// 失效失败只会让旧缓存多活一个过期周期，不阻塞写入
	_ = r.redisClient.Del(ctx, policyCacheKey(scopeID)).Err()
}
