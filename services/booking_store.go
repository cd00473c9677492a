package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/workflow"
	"gorm.io/gorm"
)

var ErrReservationNotFound = errors.New("reservation not found")

// BookingStore persists confirmed reservations and the staff login audit.
type BookingStore struct {
	DB *gorm.DB
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{DB: db}
}

func (s *BookingStore) RecordReservation(ctx context.Context, r workflow.ConfirmedReservation) error {
	row := models.Reservation{
		ID:          r.ID,
		Date:        r.Date,
		PartySize:   r.PartySize,
		TableID:     r.TableID,
		Time:        r.Time,
		Notes:       r.Notes,
		ConfirmedAt: r.ConfirmedAt,
	}
	return s.DB.WithContext(ctx).Omit("Table").Create(&row).Error
}

func (s *BookingStore) FindReservation(ctx context.Context, id string) (workflow.ConfirmedReservation, error) {
	var row models.Reservation
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.ConfirmedReservation{}, ErrReservationNotFound
	}
	if err != nil {
		return workflow.ConfirmedReservation{}, err
	}
	return workflow.ConfirmedReservation{
		ID:          row.ID,
		Date:        row.Date,
		PartySize:   row.PartySize,
		TableID:     row.TableID,
		Time:        row.Time,
		Notes:       row.Notes,
		ConfirmedAt: row.ConfirmedAt,
	}, nil
}

// RecordLoginAttempt stores who tried to log in and whether it worked.
func (s *BookingStore) RecordLoginAttempt(ctx context.Context, a workflow.LoginAttempt) error {
	row := models.LoginAttempt{
		Username:    a.Username,
		Success:     a.Success,
		AttemptedAt: a.At,
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}
