package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/shopspring/decimal"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleManager,
	domain.RoleEmbalmer,
	domain.RoleStaff,
	domain.RoleDriver,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomStaff(password string, emailDomainName string, scopeID string) (*domain.Staff, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	staff := &domain.Staff{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
		ScopeID:      scopeID,
	}

	return staff, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// GenerateDefaultPolicy 种子数据使用的一套宽松策略
func GenerateDefaultPolicy(scopeID string) *domain.Policy {
	return &domain.Policy{
		ScopeID:                    scopeID,
		MinAdvanceNoticeHours:      48,
		MaxAdvanceNoticeHours:      24 * 90,
		MinDurationHours:           4,
		MaxDurationHours:           72,
		MinRestHours:               8,
		MaxConsecutiveOn:           2,
		WeeklyOvertimeCeilingHours: 60,
		MaxPreparationsPerShift:    3,
		PreparationBreakHours:      decimal.NewFromFloat(0.5),
	}
}

var assignmentKinds = []domain.AssignmentKind{
	domain.KindOnCall,
	domain.KindShift,
	domain.KindPreparation,
	domain.KindDispatch,
}

// GenerateRandomAssignment 为某员工生成一条未来若干天内、时长 4~12 小时的排班
// 入殓和接运类排班会附带业务单号
func GenerateRandomAssignment(staff *domain.Staff, daysAhead int) *domain.Assignment {
	start := time.Now().
		AddDate(0, 0, rand.Intn(daysAhead)+3).
		Truncate(time.Hour)
	duration := time.Duration(rand.Intn(9)+4) * time.Hour

	a := &domain.Assignment{
		StaffID:   staff.ID,
		StaffName: staff.FullName,
		ScopeID:   staff.ScopeID,
		Kind:      assignmentKinds[rand.Intn(len(assignmentKinds))],
		StartTime: start,
		EndTime:   start.Add(duration),
		Status:    domain.StatusScheduled,
	}

	if a.Kind == domain.KindPreparation || a.Kind == domain.KindDispatch {
		a.CaseRef = "YA-" + GenerateRandomID(2, 6)
	}
	if a.Kind == domain.KindDispatch {
		vehicleID := int64(rand.Intn(20) + 1)
		a.VehicleID = &vehicleID
	}
	if a.Kind == domain.KindPreparation {
		a.EstimatedHours = decimal.NewFromInt(int64(rand.Intn(3) + 1))
	}

	return a
}
