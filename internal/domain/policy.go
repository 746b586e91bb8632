package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy 某个网点当前生效的排班策略
// 策略采用 SCD2 版本化：更新时关闭旧版本并插入新版本，任意时刻每个网点
// 只有一条 is_current 的记录，历史版本全部保留
type Policy struct {
	ID      int64  `json:"id"`
	ScopeID string `json:"scopeID"`

	MinAdvanceNoticeHours float64 `json:"minAdvanceNoticeHours"`
	// MaxAdvanceNoticeHours 为 0 时表示不限制提前排班的上限
	MaxAdvanceNoticeHours float64 `json:"maxAdvanceNoticeHours"`
	MinDurationHours      float64 `json:"minDurationHours"`
	MaxDurationHours      float64 `json:"maxDurationHours"`
	MinRestHours          float64 `json:"minRestHours"`
	MaxConsecutiveOn      int32   `json:"maxConsecutiveOn"`
	// WeeklyOvertimeCeilingHours 换班后替班人单周总工时的上限
	WeeklyOvertimeCeilingHours float64 `json:"weeklyOvertimeCeilingHours"`
	// MaxPreparationsPerShift 单个班次内入殓排班数量的上限
	MaxPreparationsPerShift int32 `json:"maxPreparationsPerShift"`
	// PreparationBreakHours 相邻两次入殓之间的间歇时长
	PreparationBreakHours decimal.Decimal `json:"preparationBreakHours"`

	ValidFrom time.Time  `json:"validFrom"`
	ValidTo   *time.Time `json:"validTo"`
	IsCurrent bool       `json:"isCurrent"`
	CreatedAt time.Time  `json:"createdAt"`
}
