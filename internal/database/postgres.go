package database

import (
	"fmt"
	"log"

	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB() (*gorm.DB, error) {
	cfg := config.GetAppConfig()
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 获取底层的sql.DB设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := autoMigrate(db); err != nil {
		log.Printf("⚠️  Database migration warning: %v", err)
	}

	DB = db
	log.Println("✅ Database connected successfully")
	return db, nil
}

// autoMigrate 自动迁移会话相关表
func autoMigrate(db *gorm.DB) error {
	// 按依赖顺序迁移：users → conversations → messages → escalation_records
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Printf("⚠️  Failed to migrate users: %v", err)
	}
	if err := db.AutoMigrate(&models.Conversation{}); err != nil {
		log.Printf("⚠️  Failed to migrate conversations: %v", err)
	}
	if err := db.AutoMigrate(&models.ConversationMessage{}); err != nil {
		log.Printf("⚠️  Failed to migrate conversation_messages: %v", err)
	}
	if err := db.AutoMigrate(&models.EscalationRecord{}); err != nil {
		log.Printf("⚠️  Failed to migrate escalation_records: %v", err)
	}
	return nil
}

func CloseDB() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
