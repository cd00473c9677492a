package database

import (
	"fmt"

	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/workflow"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service needs.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Reservation{},
		&models.LoginAttempt{},
	)
}

// SeedFloorPlan inserts the given tables when the floor is still empty. It
// returns the number of rows written.
func SeedFloorPlan(db *gorm.DB, plan []workflow.TableRecord) (int, error) {
	var count int64
	if err := db.Model(&models.Table{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	rows := make([]models.Table, 0, len(plan))
	for _, t := range plan {
		rows = append(rows, models.Table{
			ID:           t.ID,
			TableNumber:  fmt.Sprintf("T%d", t.ID),
			PosX:         t.Position.X,
			PosY:         t.Position.Y,
			Status:       string(t.Status),
			Guests:       t.Occupancy,
			ReservedTime: t.ReservedTime,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := db.Create(&rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}
