package models

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAction names an audited admin operation.
type AdminAction string

const (
	AdminActionBanUser       AdminAction = "ban_user"
	AdminActionUnbanUser     AdminAction = "unban_user"
	AdminActionDeleteListing AdminAction = "delete_listing"
	AdminActionWarnSeller    AdminAction = "warn_seller"
	AdminActionReviewReport  AdminAction = "review_report"
	AdminActionResolveReport AdminAction = "resolve_report"
)

// Admin log target types.
const (
	AdminTargetUser    = "user"
	AdminTargetListing = "listing"
	AdminTargetReport  = "report"
)

// AdminLog is an append-only audit record.
type AdminLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	AdminID    uint           `gorm:"not null;index" json:"admin_id"`
	Action     AdminAction    `gorm:"type:varchar(32);not null;index" json:"action"`
	TargetType string         `gorm:"type:varchar(16);not null" json:"target_type"`
	TargetID   uint           `gorm:"not null" json:"target_id"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
