package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接并自动迁移同步相关表
// dsn: Postgres 连接字符串
// models: 需要自动建表/迁移的结构体指针（商品、分类、映射、订单）
func InitDB(dsn string, models ...interface{}) *gorm.DB {
	// 同步引擎的批处理会打大量 SQL，默认只记录 Warn 以上
	dbLogger := logger.Default.LogMode(logger.Warn)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		log.Fatalf("[Database] 数据库连接失败: %v", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("[Database] 获取底层 SQL DB 失败: %v", err)
	}

	// 定时任务 + API 并发量不大，连接池给个保守上限
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("[Database] 数据库连接成功")

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatalf("[Database] 自动建表出错: %v", err)
		}
	}

	return db
}
