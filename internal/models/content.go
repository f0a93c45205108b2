package models

import (
	"time"
)

// Item statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// ContentItem is one persisted instance of a content model. Data holds the
// field→value map; Version counts successful writes and equals the number
// of snapshots in the normal lifecycle.
type ContentItem struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	ModelID     string     `gorm:"size:100;not null;index" json:"modelId"`
	Data        JSON       `gorm:"type:json" json:"data"`
	Status      string     `gorm:"size:20;not null;default:'draft';index" json:"status"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Version     uint64     `gorm:"not null;default:1" json:"version"`
	CreatedBy   string     `gorm:"type:char(36)" json:"createdBy,omitempty"`
	UpdatedBy   string     `gorm:"type:char(36)" json:"updatedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Versions []ContentVersion `gorm:"foreignKey:ContentItemID" json:"-"`
}

// ContentVersion is an immutable full snapshot of an item's data at the
// moment its version counter reached Version. Snapshots are appended on
// create/update and bulk-removed when the owning item is deleted.
type ContentVersion struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ContentItemID string    `gorm:"type:char(36);not null;index:idx_item_version,unique" json:"contentItemId"`
	Version       uint64    `gorm:"not null;index:idx_item_version,unique" json:"version"`
	Data          JSON      `gorm:"type:json" json:"data"`
	CreatedBy     string    `gorm:"type:char(36)" json:"createdBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TableName overrides the table name for ContentItem.
func (ContentItem) TableName() string {
	return "content_items"
}

// TableName overrides the table name for ContentVersion.
func (ContentVersion) TableName() string {
	return "content_versions"
}
