// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole distinguishes buyers (students looking for housing) from sellers (agents, landlords).
type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleSeller UserRole = "seller"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// User is a marketplace profile. IsAdmin is only ever set server-side.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:120;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:254;not null" json:"email,omitempty"`
	Password     string         `gorm:"not null" json:"-"`
	Role         UserRole       `gorm:"type:varchar(16);not null;default:'buyer';index" json:"role"`
	ProfilePic   string         `json:"profile_pic"`
	IsStudent    bool           `gorm:"default:false" json:"is_student"`
	StudentLevel string         `gorm:"size:32" json:"student_level,omitempty"`
	BVNVerified  bool           `gorm:"column:bvn_verified;default:false" json:"bvn_verified"`
	IsAdmin      bool           `gorm:"default:false;index" json:"is_admin"`
	IsBanned     bool           `gorm:"default:false;index" json:"is_banned"`
	BannedAt     *time.Time     `json:"banned_at,omitempty"`
	BannedReason *string        `gorm:"type:text" json:"banned_reason,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// PublicProfile strips fields other users should not see.
func (u User) PublicProfile() User {
	return User{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role,
		ProfilePic:   u.ProfilePic,
		IsStudent:    u.IsStudent,
		StudentLevel: u.StudentLevel,
		BVNVerified:  u.BVNVerified,
		CreatedAt:    u.CreatedAt,
	}
}
