package models

import "time"

// Chat is the single conversation between one buyer and one seller about one listing.
// (listing_id, buyer_id) is unique.
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_chats_listing_buyer" json:"listing_id"`
	Listing   *Listing  `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BuyerID   uint      `gorm:"not null;uniqueIndex:idx_chats_listing_buyer;index" json:"buyer_id"`
	Buyer     *User     `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID  uint      `gorm:"not null;index" json:"seller_id"`
	Seller    *User     `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Messages  []Message `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsParticipant reports whether userID is the buyer or the seller of the chat.
func (c *Chat) IsParticipant(userID uint) bool {
	return userID != 0 && (userID == c.BuyerID || userID == c.SellerID)
}

// Message is one entry of a chat transcript. Transcripts sort by (created_at, id).
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"not null;index:idx_messages_chat_created,priority:1" json:"chat_id"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_created,priority:2" json:"timestamp"`
}
