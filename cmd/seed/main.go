package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/config"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/repository"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/seed"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var scopeID string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机员工, 2: 插入默认策略, 3: 插入随机排班, 4: 插入真实数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&scopeID, "scope", "", "操作对应的网点")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 连接 redis（写入策略时需要使缓存失效）
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool, rdb)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的员工数量")
			return
		}
		if scopeID == "" {
			slog.Error("请指定网点")
			return
		}

		cnt := n
		for i := 0; i < n; i++ {
			staff, err := utils.GenerateRandomStaff(cfg.Seed.Staff.Password, cfg.Email.UserDomain, scopeID)
			if err != nil {
				slog.Error("无法生成随机员工", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateStaff(staff); err != nil {
				slog.Error("无法插入员工", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("插入员工成功", slog.Int("count", n-cnt))
	case 2:
		if scopeID == "" {
			slog.Error("请指定网点")
			return
		}

		if err := repo.CreatePolicy(utils.GenerateDefaultPolicy(scopeID)); err != nil {
			slog.Error("无法插入默认策略", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入默认策略成功", slog.String("scope", scopeID))
	case 3:
		if scopeID == "" {
			slog.Error("请指定网点")
			return
		}

		staffs, err := repo.GetActiveStaffByScope(scopeID)
		if err != nil {
			slog.Error("无法获取网点员工", slog.String("error", err.Error()))
			return
		}
		if len(staffs) == 0 {
			slog.Error("该网点没有在职员工", slog.String("scope", scopeID))
			return
		}

		// 随机排班不走校验管道，只用于填充测试数据
		// 排它约束仍然会拒绝重叠的时段，被拒绝的直接跳过
		cnt := 0
		for _, staff := range staffs {
			for i := 0; i < n; i++ {
				a := utils.GenerateRandomAssignment(staff, 60)
				if err := repo.CreateAssignment(a); err != nil {
					slog.Error("无法插入排班", slog.String("error", err.Error()))
					continue
				}

				cnt++
			}
		}

		slog.Info("插入排班成功", slog.Int("count", cnt))
	case 4:
		seed.SeedRealData(repo)
	default:
		slog.Error("指定的操作非法")
	}
}
