package repository

import (
	"database/sql"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/config"
)

// ErrConflict 数据库排它约束拒绝了写入，说明校验通过后有并发写入抢先落库
// 调用方拿到这个错误后应当基于最新数据重新校验，而不是沿用之前的校验结论
var ErrConflict = errors.New("排班时段已被并发写入占用")

// ErrNoCurrentPolicy 网点没有生效的策略版本，相关写入必须拒绝而不是回退到默认值
var ErrNoCurrentPolicy = errors.New("该网点尚未配置排班策略")

type Repository struct {
	cfg         *config.Config
	dbpool      *sql.DB
	redisClient *redis.Client
}

func NewRepository(cfg *config.Config, dbpool *sql.DB, rdb *redis.Client) *Repository {
	return &Repository{
		cfg:         cfg,
		dbpool:      dbpool,
		redisClient: rdb,
	}
}
