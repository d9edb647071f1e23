package database

import (
	"time"

	"github.com/rentitout/backend/internal/config"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect() {
	dsn := config.AppConfig.DatabaseURL
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get underlying sql.DB")
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	DB = db
	logger.Info().Int("max_open", 25).Int("max_idle", 10).Msg("Connected to PostgreSQL")
}

// AutoMigrate creates or updates every table the backend owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ChatMessage{},
		&models.SystemSettings{},
		&models.AdminAction{},
	)
}

// IsFeatureEnabled reads a boolean system setting. A missing row, or no
// database at all, yields def.
func IsFeatureEnabled(key string, def bool) bool {
	if DB == nil {
		return def
	}
	var setting models.SystemSettings
	if err := DB.Where("key = ?", key).Limit(1).Find(&setting).Error; err != nil || setting.Key == "" {
		return def
	}
	return setting.Value == "true"
}

// GetSetting returns a system setting value, or "" when unset.
func GetSetting(key string) string {
	if DB == nil {
		return ""
	}
	var setting models.SystemSettings
	if err := DB.Where("key = ?", key).Limit(1).Find(&setting).Error; err != nil {
		return ""
	}
	return setting.Value
}
