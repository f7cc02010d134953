package database

import "campusnest/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Listing{},
		&models.Chat{},
		&models.Message{},
		&models.Notification{},
		&models.Report{},
		&models.AdminLog{},
	}
}
