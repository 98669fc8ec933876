package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 1. debug模式打印SQL，其余模式只记录慢查询和错误
// 2. 配置连接池
// 3. auto_migrate开启时同步表结构
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			// 秒级精度，与DATETIME列一致
			return time.Now().Truncate(time.Second)
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("数据库连接成功",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName))

	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		log.Info("表结构已同步")
	}

	return db, nil
}

// AutoMigrate 同步表结构（只加表加列，不删不改）
// 生产环境建议关闭auto_migrate，改用版本化迁移脚本
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Models 所有需要建表的模型
func Models() []interface{} {
	return []interface{}{
		&UserModel{},
		&ProductModel{},
		&CouponModel{},
		&OrderModel{},
		&OrderItemModel{},
		&PaymentModel{},
		&PaymentEventModel{},
		&AdminNotificationModel{},
	}
}
