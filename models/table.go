package models

import "time"

type Table struct {
	ID           uint      `gorm:"primaryKey"`
	TableNumber  string    `gorm:"type:varchar(50);not null"`
	PosX         int       `gorm:"not null;default:0"`
	PosY         int       `gorm:"not null;default:0"`
	Status       string    `gorm:"type:varchar(20);not null;default:'free';index"`
	Guests       int       `gorm:"not null;default:0"`
	ReservedTime *string   `gorm:"type:varchar(20)"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
