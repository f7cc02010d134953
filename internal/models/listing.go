package models

import (
	"time"

	"gorm.io/datatypes"
)

// ListingStatus is the lifecycle state of a listing. Deleting a listing marks it sold.
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "active"
	ListingStatusSold   ListingStatus = "sold"
)

// Valid reports whether s is a known status.
func (s ListingStatus) Valid() bool {
	return s == ListingStatusActive || s == ListingStatusSold
}

// Listing is an apartment offered by a seller.
type Listing struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	SellerID    uint                        `gorm:"not null;index" json:"seller_id"`
	Seller      *User                       `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Address     string                      `gorm:"size:255;not null" json:"address"`
	Location    string                      `gorm:"size:120;not null;index" json:"location"`
	Price       float64                     `gorm:"not null" json:"price"`
	Description string                      `gorm:"type:text" json:"description"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	Video       string                      `json:"video,omitempty"`
	Status      ListingStatus               `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	Views       int64                       `gorm:"not null;default:0" json:"views"`
	CreatedAt   time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}
