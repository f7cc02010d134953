package repository

import (
	"context"
	"errors"

	"campusnest/internal/database"
	"campusnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines persistence operations for chats and their messages.
type ChatRepository interface {
	WithTx(tx *gorm.DB) ChatRepository
	FindOrCreate(ctx context.Context, listingID, buyerID, sellerID uint) (chat *models.Chat, created bool, err error)
	GetByID(ctx context.Context, id uint) (*models.Chat, error)
	GetDetailed(ctx context.Context, id uint) (*models.Chat, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Chat, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Chat, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, chatID, afterID uint) ([]models.Message, error)
	Count(ctx context.Context) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) WithTx(tx *gorm.DB) ChatRepository {
	return &chatRepository{db: tx}
}

func (r *chatRepository) findByPair(ctx context.Context, listingID, buyerID uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ?", listingID, buyerID).
		Take(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindOrCreate returns the chat for (listingID, buyerID), inserting it if absent.
// The unique index decides concurrent inserts; the loser re-reads the winner's row.
func (r *chatRepository) FindOrCreate(ctx context.Context, listingID, buyerID, sellerID uint) (*models.Chat, bool, error) {
	existing, err := r.findByPair(ctx, listingID, buyerID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, models.NewInternalError(err)
	}

	chat := &models.Chat{ListingID: listingID, BuyerID: buyerID, SellerID: sellerID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "listing_id"}, {Name: "buyer_id"}},
			DoNothing: true,
		}).
		Create(chat)
	if res.Error != nil && !database.IsUniqueViolation(res.Error) {
		return nil, false, models.NewInternalError(res.Error)
	}
	if res.Error == nil && res.RowsAffected == 1 && chat.ID != 0 {
		return chat, true, nil
	}

	winner, err := r.findByPair(ctx, listingID, buyerID)
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}
	return winner, false, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).First(&chat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Chat", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

// GetDetailed loads the chat with its listing and both parties.
func (r *chatRepository) GetDetailed(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		Preload("Seller").
		First(&chat, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Chat", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

func (r *chatRepository) ListForUser(ctx context.Context, userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Preload("Listing").
		Preload("Buyer").
		Preload("Seller").
		Order("created_at DESC, id DESC").
		Find(&chats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return chats, nil
}

// ListAll returns chats with their full transcripts for admin review.
func (r *chatRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		Preload("Seller").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&chats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return chats, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListMessages returns the transcript in send order. afterID > 0 returns only
// messages inserted after that one, for polling clients.
func (r *chatRepository) ListMessages(ctx context.Context, chatID, afterID uint) ([]models.Message, error) {
	q := r.db.WithContext(ctx).Where("chat_id = ?", chatID)
	if afterID > 0 {
		q = q.Where("id > ?", afterID)
	}

	var messages []models.Message
	if err := q.Order("created_at ASC, id ASC").Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *chatRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Chat{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
