package seed

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/repository"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/utils"
)

// rosterColumns 花名册 CSV 必须包含的列
var rosterColumns = []string{"工号", "姓名", "邮箱", "角色", "网点"}

// SeedRealData 从花名册 CSV 导入员工，并为涉及的每个网点补齐默认策略
func SeedRealData(r *repository.Repository) {
	file, err := os.Open("./internal/seed/data/roster.csv")
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		slog.Error("读取表头失败", "error", err)
		return
	}

	columnIndex := make(map[string]int)
	for i, header := range headers {
		columnIndex[header] = i
	}
	for _, column := range rosterColumns {
		if _, ok := columnIndex[column]; !ok {
			slog.Error("花名册缺少必要的列", "column", column)
			return
		}
	}

	// 读取数据
	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Error("读取文件失败", "error", err)
			return
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = value
		}
		records = append(records, record)
	}

	// 插入员工
	scopes := make(map[string]bool)
	for _, record := range records {
		username := record["工号"]
		if username == "" {
			slog.Error("没有找到工号", "record", record)
			continue
		}

		scopes[record["网点"]] = true

		if _, err := r.GetStaffByUsername(username); err == nil {
			// 员工已存在，跳过
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("获取员工失败", "error", err)
			continue
		}

		staff := &domain.Staff{
			Username:     username,
			PasswordHash: "$2a$10$aUTaWl3vmXuQFocBkb9Qx.YJPAzNoaAcj2VC5tI45l1Roh24meCgO", // yongan@test8403
			FullName:     record["姓名"],
			Email:        record["邮箱"],
			Role:         domain.Role(record["角色"]),
			ScopeID:      record["网点"],
		}

		if err := r.CreateStaff(staff); err != nil {
			slog.Error("插入员工失败", "error", err)
			continue
		}
	}

	// 为每个网点补齐默认策略
	for scopeID := range scopes {
		if scopeID == "" {
			continue
		}

		if _, err := r.GetCurrentPolicy(scopeID); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("获取策略失败", "error", err)
			continue
		}

		if err := r.CreatePolicy(utils.GenerateDefaultPolicy(scopeID)); err != nil {
			slog.Error("插入默认策略失败", "error", err)
			continue
		}
	}

	slog.Info("插入数据完成")
}
