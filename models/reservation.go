package models

import "time"

// Reservation is a confirmed booking. Drafts are never stored.
type Reservation struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Date        string    `gorm:"type:varchar(10);not null;index"`
	PartySize   int       `gorm:"not null"`
	TableID     uint      `gorm:"not null;index"`
	Table       Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Time        string    `gorm:"type:varchar(10);not null"`
	Notes       string    `gorm:"type:text"`
	ConfirmedAt time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}
