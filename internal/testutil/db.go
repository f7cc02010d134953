// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"campusnest/internal/database"
	"campusnest/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory database pinned to one connection.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// NewMockDB returns a GORM postgres handle backed by sqlmock.
func NewMockDB(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// CreateUser inserts a user with a cheap bcrypt hash of "password123".
func CreateUser(t testing.TB, db *gorm.DB, name string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: string(hash),
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateListing inserts an active listing owned by sellerID.
func CreateListing(t testing.TB, db *gorm.DB, sellerID uint, address string) *models.Listing {
	t.Helper()
	l := &models.Listing{
		SellerID: sellerID,
		Address:  address,
		Location: "Akoka",
		Price:    250000,
		Images:   []string{"http://localhost/uploads/listings/a.webp"},
		Status:   models.ListingStatusActive,
	}
	require.NoError(t, db.Create(l).Error)
	return l
}
