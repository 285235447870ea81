package models

import "time"

// AuditLog records who did what against the API.
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    *uint  `gorm:"index"`
	Method    string `gorm:"size:8"`
	Path      string `gorm:"size:255"`
	Action    string `gorm:"type:text"`
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	CreatedAt time.Time
}
