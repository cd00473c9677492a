package services

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/workflow"
	"gorm.io/gorm"
)

// TableStore is the database-backed table directory shared by the reservation
// and table status workflows.
type TableStore struct {
	DB *gorm.DB
}

func NewTableStore(db *gorm.DB) *TableStore {
	return &TableStore{DB: db}
}

func (s *TableStore) ListTables(ctx context.Context) ([]workflow.TableRecord, error) {
	var rows []models.Table
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]workflow.TableRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	return out, nil
}

// ListByStatus returns the tables currently in the given status.
func (s *TableStore) ListByStatus(ctx context.Context, status workflow.TableStatus) ([]workflow.TableRecord, error) {
	var rows []models.Table
	if err := s.DB.WithContext(ctx).Where("status = ?", string(status)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]workflow.TableRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	return out, nil
}

func (s *TableStore) GetTable(ctx context.Context, tableID uint) (workflow.TableRecord, error) {
	var row models.Table
	err := s.DB.WithContext(ctx).First(&row, tableID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.TableRecord{}, workflow.ErrTableNotFound
	}
	if err != nil {
		return workflow.TableRecord{}, err
	}
	return toRecord(row), nil
}

func (s *TableStore) CheckAvailability(ctx context.Context, tableID uint) (bool, error) {
	t, err := s.GetTable(ctx, tableID)
	if err != nil {
		return false, err
	}
	return t.Status == workflow.StatusFree, nil
}

// UpdateTable writes the status, guests and time of next only while the row
// still holds the expected status.
func (s *TableStore) UpdateTable(ctx context.Context, tableID uint, expected workflow.TableStatus, next workflow.TableRecord) (workflow.TableRecord, error) {
	if err := workflow.ValidateRecord(next); err != nil {
		return workflow.TableRecord{}, err
	}

	var row models.Table
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Table{}).
			Where("id = ? AND status = ?", tableID, string(expected)).
			Updates(map[string]interface{}{
				"status":        string(next.Status),
				"guests":        next.Occupancy,
				"reserved_time": next.ReservedTime,
				"updated_at":    time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		// MySQL reports changed rows unless the DSN sets clientFoundRows=true.
		// updated_at always moves, so a matched row is never counted as zero.
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Table{}).Where("id = ?", tableID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return workflow.ErrTableNotFound
			}
			return workflow.ErrStaleStatus
		}
		return tx.First(&row, tableID).Error
	})
	if err != nil {
		return workflow.TableRecord{}, err
	}
	return toRecord(row), nil
}

func toRecord(row models.Table) workflow.TableRecord {
	rec := workflow.TableRecord{
		ID:        row.ID,
		Position:  workflow.Position{X: row.PosX, Y: row.PosY},
		Status:    workflow.TableStatus(row.Status),
		Occupancy: row.Guests,
	}
	if row.ReservedTime != nil {
		v := *row.ReservedTime
		rec.ReservedTime = &v
	}
	return rec
}
