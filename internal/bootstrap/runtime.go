// Package bootstrap prepares the database and cache a process needs before it serves traffic.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"campusnest/internal/cache"
	"campusnest/internal/config"
	"campusnest/internal/database"
	"campusnest/internal/models"
	"campusnest/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const devRootAdminName = "CampusNest Admin"

// InitRuntime connects to the DB (applying the schema policy) and Redis, and
// in development makes sure the configured root admin exists. The returned
// Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevRootAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	return db, r, nil
}

func ensureDevRootAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	email := validation.NormalizeEmail(cfg.DevRootAdminEmail)
	if email == "" {
		return nil
	}
	if cfg.DevRootAdminPassword == "" {
		return errors.New("DEV_ROOT_ADMIN_PASSWORD must be set when DEV_ROOT_ADMIN_EMAIL is")
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("email = ?", email).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevRootAdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash root password: %w", err)
			}
			root = models.User{
				Name:     devRootAdminName,
				Email:    email,
				Password: string(hashed),
				Role:     models.RoleBuyer,
				IsAdmin:  true,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		case root.IsAdmin:
			return nil
		default:
			return tx.Model(&root).Update("is_admin", true).Error
		}
	})
	if err != nil {
		return err
	}

	log.Printf("development root admin bootstrap ensured (%s)", email)
	return nil
}
