package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one handle so services can compose
// them inside a single transaction.
type Store struct {
	db            *gorm.DB
	Users         UserRepository
	Listings      ListingRepository
	Chats         ChatRepository
	Notifications NotificationRepository
	Reports       ReportRepository
	AdminLogs     AdminLogRepository
}

// NewStore builds every repository on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Listings:      NewListingRepository(db),
		Chats:         NewChatRepository(db),
		Notifications: NewNotificationRepository(db),
		Reports:       NewReportRepository(db),
		AdminLogs:     NewAdminLogRepository(db),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTx rebinds every repository to tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{
		db:            tx,
		Users:         s.Users.WithTx(tx),
		Listings:      s.Listings.WithTx(tx),
		Chats:         s.Chats.WithTx(tx),
		Notifications: s.Notifications.WithTx(tx),
		Reports:       s.Reports.WithTx(tx),
		AdminLogs:     s.AdminLogs.WithTx(tx),
	}
}

// Transaction runs fn with a Store bound to one transaction. Any error from fn
// rolls back every write made through the transactional Store.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTx(tx))
	})
}
