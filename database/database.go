package database

import (
	"context"
	"fmt"
	"time"

	"studio-site-backend/config"
	"studio-site-backend/migrations"
	"studio-site-backend/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxConnectRetries = 5
	retryInterval     = time.Second * 10
)

// ConnectDatabase opens the postgres connection, retrying while the database comes up.
func ConnectDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// Configure GORM logger based on environment
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	location, err := time.LoadLocation(cfg.DbTz)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_TZ %q: %w", cfg.DbTz, err)
	}

	for attempt := 1; attempt <= maxConnectRetries; attempt++ {
		log.Info("connecting to database", zap.Int("attempt", attempt), zap.Int("max_attempts", maxConnectRetries))

		db, err := Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:         gormLogger,
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now().In(location)
			},
		})
		if err == nil {
			log.Info("database connection established")
			return db, nil
		}
		log.Warn("database connection failed", zap.Error(err))

		if attempt < maxConnectRetries {
			log.Info("retrying database connection", zap.Duration("in", retryInterval))
			time.Sleep(retryInterval)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts", maxConnectRetries)
}

// Open opens and pings a database and applies the pool settings.
func Open(dialector gorm.Dialector, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// MigrateDatabase auto-migrates the content tables. The users table is owned
// by the migrations package.
func MigrateDatabase(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting content table migration")

	err := db.AutoMigrate(
		&models.Post{},
		&models.Project{},
		&models.MigrationRun{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("content table migration completed")
	return nil
}

// RunSchemaMigrations applies every schema migration in order. Individual
// step failures are reported in the summaries, never as an error.
func RunSchemaMigrations(ctx context.Context, db *gorm.DB, log *zap.Logger) []migrations.Summary {
	runner := migrations.NewRunner(NewSchema(db), log, migrations.WithRecorder(NewRunRecorder(db)))
	return runner.UpAll(ctx, migrations.All())
}
