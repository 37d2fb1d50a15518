package models

import "time"

// MigrationRun stores the outcome of one migration run so operators can see
// partially applied migrations without digging through logs.
type MigrationRun struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Migration      string    `gorm:"not null;index;type:varchar(100)" json:"migration"`
	Direction      string    `gorm:"not null;type:varchar(10)" json:"direction"`
	Applied        int       `gorm:"not null;default:0" json:"applied"`
	AlreadyApplied int       `gorm:"not null;default:0" json:"already_applied"`
	Failed         int       `gorm:"not null;default:0" json:"failed"`
	Detail         string    `gorm:"type:text" json:"detail"`
	DurationMs     int64     `json:"duration_ms"`
	StartedAt      time.Time `gorm:"not null" json:"started_at"`
	CreatedAt      time.Time `json:"created_at"`
}
