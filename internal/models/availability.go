package models

import (
	"time"
)

// Dahabiya is a vessel of the fleet. These rows are provisioned, not
// content-managed; the availability grid hangs off them and month seeding
// takes its default price from DailyRate.
type Dahabiya struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Slug      string    `gorm:"size:150;not null;uniqueIndex" json:"slug"`
	DailyRate float64   `gorm:"not null;default:0" json:"dailyRate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AvailabilityDate is one cell of the per-vessel calendar grid. A missing
// row is a distinct "unset" state; Available=false means set-but-blocked.
// Date is normalized to midnight UTC by the service layer.
type AvailabilityDate struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DahabiyaID string    `gorm:"type:char(36);not null;index:idx_dahabiya_date,unique" json:"dahabiyaId"`
	Date       time.Time `gorm:"not null;index:idx_dahabiya_date,unique" json:"date"`
	Available  bool      `gorm:"not null;default:true" json:"available"`
	Price      float64   `gorm:"not null;default:0" json:"price"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName overrides the table name for Dahabiya.
func (Dahabiya) TableName() string {
	return "dahabiyat"
}

// TableName overrides the table name for AvailabilityDate.
func (AvailabilityDate) TableName() string {
	return "availability_dates"
}
