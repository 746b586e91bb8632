package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "管理员"
	RoleManager  Role = "礼仪主管"
	RoleEmbalmer Role = "入殓师"
	RoleStaff    Role = "礼仪师"
	RoleDriver   Role = "司机"
)

// roleRank 定义了执业等级的全序，数值越大等级越高
// 换班时替班人的等级不能低于申请人
var roleRank = map[Role]int{
	RoleDriver:   1,
	RoleStaff:    2,
	RoleEmbalmer: 3,
	RoleManager:  4,
	RoleAdmin:    5,
}

func (r Role) Rank() int {
	return roleRank[r]
}

// CanReview 只有主管和管理员可以审批换班申请
func (r Role) CanReview() bool {
	return r == RoleManager || r == RoleAdmin
}

type Staff struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	ScopeID      string    `json:"scopeID"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
