package pkg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inedit/inedit-service/internal/config"
	"github.com/inedit/inedit-service/internal/models"
)

const sqliteScheme = "sqlite://"

// InitDatabase opens the configured database, applies pool settings and
// optionally migrates and seeds it
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.Environment)),
	}

	path, isSQLite := strings.CutPrefix(cfg.DatabaseURL, sqliteScheme)
	if isSQLite {
		db, err = OpenSQLite(path, gormConfig)
	} else {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite keeps the single connection OpenSQLite configured
	if !isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLife)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	if cfg.SeedBancas {
		if err := SeedBancas(context.Background(), db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// OpenSQLite opens a pure Go SQLite database. Used for local runs and tests;
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string, gormConfig *gorm.Config) (*gorm.DB, error) {
	if gormConfig == nil {
		gormConfig = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serialises writers; a single connection also keeps ":memory:" shared
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Banca{},
		&models.Source{},
		&models.Question{},
		&models.QuestionOption{},
		&models.UserAnswer{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedBancas inserts the default bancas when the table is empty
func SeedBancas(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Banca{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count bancas: %w", err)
	}
	if count > 0 {
		return nil
	}

	bancas := models.DefaultBancas()
	if err := db.WithContext(ctx).Create(&bancas).Error; err != nil {
		return fmt.Errorf("failed to seed bancas: %w", err)
	}
	return nil
}

// NewRedisClient connects to redis using a redis:// URL
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("redis url is empty")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func gormLogLevel(environment string) logger.LogLevel {
	if environment == "development" {
		return logger.Info
	}
	return logger.Warn
}
