package models

import "time"

// LoginAttempt is the staff login audit trail. The password is never stored.
type LoginAttempt struct {
	ID          uint      `gorm:"primaryKey"`
	Username    string    `gorm:"type:varchar(255);not null;index"`
	Success     bool      `gorm:"not null;default:false"`
	AttemptedAt time.Time `gorm:"not null"`
}
