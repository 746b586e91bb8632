package engine

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

type PatternType string

const (
	PatternAlternate PatternType = "on-off-on-off"
	PatternFrontload PatternType = "on-on-off-off"
	PatternBookend   PatternType = "on-off-off-on"
	PatternCustom    PatternType = "custom"
)

// WeeksPerCycle 轮换周期固定为 4 周
const WeeksPerCycle = 4

const (
	RulePatternType    = "pattern_type"
	RuleOnWeeks        = "on_weeks"
	RuleMinOffWeeks    = "min_off_weeks"
	RuleMaxConsecutive = "max_consecutive"
)

// RotationPattern 一个轮换周期内哪些周值班
// 同一轮换中的所有员工共享相同的 OnWeeks，公平性得分因此也相同
type RotationPattern struct {
	Type          PatternType `json:"type"`
	WeeksPerCycle int         `json:"weeksPerCycle"`
	OnWeeks       []int       `json:"onWeeks"`
}

// namedPatterns 固定模式到值班周集合的映射
var namedPatterns = map[PatternType][]int{
	PatternAlternate: {1, 3},
	PatternFrontload: {1, 2},
	PatternBookend:   {1, 4},
}

// GeneratePattern 将模式编译为值班周集合并校验分布规则
// custom 模式必须显式给出 onWeeks，其余模式忽略该参数
func GeneratePattern(patternType PatternType, onWeeks []int) (*RotationPattern, *Violation) {
	var weeks []int

	switch patternType {
	case PatternAlternate, PatternFrontload, PatternBookend:
		weeks = slices.Clone(namedPatterns[patternType])
	case PatternCustom:
		if len(onWeeks) == 0 {
			return nil, &Violation{Rule: RuleOnWeeks, Field: "onWeeks", Message: "自定义模式必须指定值班周"}
		}
		weeks = slices.Clone(onWeeks)
	default:
		return nil, &Violation{Rule: RulePatternType, Field: "type", Message: fmt.Sprintf("不支持的轮换模式 %q", patternType)}
	}

	slices.Sort(weeks)
	weeks = slices.Compact(weeks)

	if v := validateOnWeeks(weeks); v != nil {
		return nil, v
	}

	return &RotationPattern{
		Type:          patternType,
		WeeksPerCycle: WeeksPerCycle,
		OnWeeks:       weeks,
	}, nil
}

// validateOnWeeks 分布规则：每周期至少休一周；周期内不允许连续值班 3 周
// 只检查周期内的相邻关系，不考虑跨周期的回绕
func validateOnWeeks(weeks []int) *Violation {
	for _, w := range weeks {
		if w < 1 || w > WeeksPerCycle {
			return &Violation{
				Rule:    RuleOnWeeks,
				Field:   "onWeeks",
				Message: fmt.Sprintf("值班周 %d 超出 1~%d 的范围", w, WeeksPerCycle),
			}
		}
	}

	if len(weeks) > WeeksPerCycle-1 {
		return &Violation{Rule: RuleMinOffWeeks, Field: "onWeeks", Message: "每个轮换周期至少要休息一周"}
	}

	consecutive := 1
	for i := 1; i < len(weeks); i++ {
		if weeks[i] == weeks[i-1]+1 {
			consecutive++
			if consecutive >= 3 {
				return &Violation{Rule: RuleMaxConsecutive, Field: "onWeeks", Message: "不允许连续值班 3 周及以上"}
			}
		} else {
			consecutive = 1
		}
	}

	return nil
}

// PercentageOn 值班周占比
func (p *RotationPattern) PercentageOn() float64 {
	return float64(len(p.OnWeeks)) / float64(p.WeeksPerCycle)
}

// FairnessScore 0~100 的公平性得分，以 50% 的值班占比为满分基准线性衰减
// 得分随读取重新计算，不做持久化
func (p *RotationPattern) FairnessScore() float64 {
	deviation := math.Abs(50 - 100*p.PercentageOn())
	return math.Max(0, 100-2*deviation)
}

// WeekendBlock 同一员工在同一个值班周展开出的全部模式日排班
// 三天首尾相接，校验时把整个周末折叠成一个连续时段过管道，
// 相邻模式日之间不按冲突处理；落库仍然逐日写入
type WeekendBlock struct {
	Assignments []*domain.Assignment
}

// Span 把整个周末折叠成一条候选排班，用于整体校验
func (b *WeekendBlock) Span() *domain.Assignment {
	span := *b.Assignments[0]
	span.EndTime = b.Assignments[len(b.Assignments)-1].EndTime
	return &span
}

// ExpandPattern 将轮换模式展开为排班候选：每名员工在每个值班周的每个
// 模式日（周五到周日）各生成一条周末值班，同一周的三天归入一个 WeekendBlock
// cycleStart 应当是周期第一周的周一零点
func ExpandPattern(p *RotationPattern, roster []*domain.Staff, cycleStart time.Time) []*WeekendBlock {
	// 周五相对周一偏移 4 天
	const fridayOffset = 4

	blocks := make([]*WeekendBlock, 0, len(roster)*len(p.OnWeeks))

	for _, staff := range roster {
		for _, week := range p.OnWeeks {
			weekStart := cycleStart.AddDate(0, 0, (week-1)*7)
			block := &WeekendBlock{Assignments: make([]*domain.Assignment, 0, 3)}
			for day := 0; day < 3; day++ {
				start := weekStart.AddDate(0, 0, fridayOffset+day)
				block.Assignments = append(block.Assignments, &domain.Assignment{
					StaffID:   staff.ID,
					StaffName: staff.FullName,
					ScopeID:   staff.ScopeID,
					Kind:      domain.KindOnCall,
					StartTime: start,
					EndTime:   start.AddDate(0, 0, 1),
					Status:    domain.StatusScheduled,
				})
			}
			blocks = append(blocks, block)
		}
	}

	return blocks
}
