package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	RuleMaxPreparations = "max_preparations"
	RuleShiftCapacity   = "shift_capacity"
)

// CheckCapacity 校验累计型约束：数量上限和工时上限
// 同一班次内 N 项任务会产生 (N-1) 次间歇，间歇时长每次都重新计算而不做缓存，
// 因为任务的增删都会改变间歇总量
func CheckCapacity(existingCount int, existingSum decimal.Decimal, newUnit decimal.Decimal, ceilingCount int32, ceilingSum decimal.Decimal, breakUnit decimal.Decimal) *Violation {
	newCount := existingCount + 1

	// 数量上限优先于工时判断：数量超限时即使剩余时间充足也拒绝
	if ceilingCount > 0 && int32(newCount) > ceilingCount {
		return &Violation{
			Rule:    RuleMaxPreparations,
			Field:   "caseRef",
			Message: fmt.Sprintf("单个班次最多承接 %d 项入殓任务", ceilingCount),
		}
	}

	breaks := breakUnit.Mul(decimal.NewFromInt(int64(newCount - 1)))
	total := existingSum.Add(newUnit).Add(breaks)

	if total.GreaterThan(ceilingSum) {
		return &Violation{
			Rule:  RuleShiftCapacity,
			Field: "estimatedHours",
			Message: fmt.Sprintf(
				"含间歇总工时 %s 小时，超出班次剩余时长 %s 小时",
				total.StringFixed(1), ceilingSum.StringFixed(1),
			),
		}
	}

	return nil
}
