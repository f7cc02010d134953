package models

import "time"

// ReportStatus is the moderation lifecycle of a report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReviewed ReportStatus = "reviewed"
	ReportStatusResolved ReportStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewed, ReportStatusResolved:
		return true
	}
	return false
}

// rank orders statuses so transitions can only move forward.
func (s ReportStatus) rank() int {
	switch s {
	case ReportStatusPending:
		return 0
	case ReportStatusReviewed:
		return 1
	case ReportStatusResolved:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether a report in status s may move to next.
// pending -> reviewed, pending -> resolved, reviewed -> resolved.
// Staying in place is allowed except for pending.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	if !s.Valid() || !next.Valid() || next == ReportStatusPending {
		return false
	}
	return next.rank() >= s.rank()
}

// SourcesFor lists the statuses from which next is reachable.
func SourcesFor(next ReportStatus) []ReportStatus {
	var out []ReportStatus
	for _, s := range []ReportStatus{ReportStatusPending, ReportStatusReviewed, ReportStatusResolved} {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// Report is a user-submitted flag against a listing.
// ListingDeleted is set when the resolution removed the listing.
type Report struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ListingID      uint         `gorm:"not null;index" json:"listing_id"`
	Listing        *Listing     `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	ReporterID     uint         `gorm:"not null;index" json:"reporter_id"`
	Reporter       *User        `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Reason         string       `gorm:"size:120;not null" json:"reason"`
	Details        string       `gorm:"type:text" json:"details"`
	Status         ReportStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ListingDeleted bool         `gorm:"not null;default:false" json:"listing_deleted"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
