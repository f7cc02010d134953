// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campusnest/internal/config"
	"campusnest/internal/middleware"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database connection instance.
var DB *gorm.DB

// CustomGormLogger routes GORM output through slog.
type CustomGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// NewGormLogger builds a GORM logger on top of l.
func NewGormLogger(l *slog.Logger) *CustomGormLogger {
	if l == nil {
		l = slog.Default()
	}
	return &CustomGormLogger{
		logger: l,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	}
}

// LogMode sets the logging level and returns a new interface instance.
func (l *CustomGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

func (l *CustomGormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs SQL with row count and elapsed time. Slow queries log at warn.
func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "GORM query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// ConnectOptions controls side effects of ConnectWithOptions.
type ConnectOptions struct {
	ApplySchema bool
}

// Connect opens the database and applies the configured schema policy.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
}

// ConnectWithOptions opens a connection for cfg.DBDriver. Commands that manage
// the schema themselves (cmd/migrate) pass ApplySchema=false.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	dbInstance, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(middleware.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configurePool(dbInstance, cfg); err != nil {
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}
	if err := RegisterQueryMetrics(dbInstance); err != nil {
		return nil, fmt.Errorf("failed to register query metrics: %w", err)
	}

	middleware.Logger.Info("Database connected successfully", slog.String("driver", driverName(cfg)))

	if opts.ApplySchema {
		if err := ApplySchema(context.Background(), dbInstance, cfg); err != nil {
			return nil, err
		}
		middleware.Logger.Info("Database schema ready")
	}

	DB = dbInstance
	return DB, nil
}

func driverName(cfg *config.Config) string {
	if cfg.DBDriver == "" {
		return "postgres"
	}
	return cfg.DBDriver
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case "postgres":
		sslMode := cfg.DBSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			sslMode,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		// DB_NAME is the file path; ":memory:" for throwaway databases.
		return sqlite.Open(cfg.DBName), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if driverName(cfg) == "sqlite" {
		// One writer; also keeps ":memory:" databases on a single connection.
		maxOpen = 1
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = min(5, maxOpen)
	}
	lifetime := cfg.DBConnMaxLifetimeMinutes
	if lifetime <= 0 {
		lifetime = 5
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if driverName(cfg) == "sqlite" {
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetConnMaxLifetime(time.Duration(lifetime) * time.Minute)
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure on
// either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
