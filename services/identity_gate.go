package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
	"github.com/yeremiapane/table-reservation/workflow"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials marks a rejected login. Lookup failures are returned
// as they are so the workflow reports them as an outage.
var ErrInvalidCredentials = workflow.ErrInvalidCredentials

// Gate hands out an identity gate bound to one dashboard session, so the
// issued token names the session it belongs to.
type Gate interface {
	ForSession(sessionID string) workflow.IdentityGate
}

// StaffGate checks credentials against the users table.
type StaffGate struct {
	DB *gorm.DB
}

func NewStaffGate(db *gorm.DB) *StaffGate {
	return &StaffGate{DB: db}
}

func (g *StaffGate) ForSession(sessionID string) workflow.IdentityGate {
	return gateFunc(func(ctx context.Context, username, password string) (workflow.Session, error) {
		return g.authenticate(ctx, sessionID, username, password)
	})
}

func (g *StaffGate) authenticate(ctx context.Context, sessionID, username, password string) (workflow.Session, error) {
	var user models.User
	err := g.DB.WithContext(ctx).
		Where("username = ? OR email = ?", username, username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return workflow.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return workflow.Session{}, ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateToken(user.ID, user.Username, user.Role, sessionID)
	if err != nil {
		return workflow.Session{}, err
	}
	return workflow.Session{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// DemoGate accepts any non-empty username and password. Only for local demos.
type DemoGate struct{}

func (DemoGate) ForSession(sessionID string) workflow.IdentityGate {
	return gateFunc(func(ctx context.Context, username, password string) (workflow.Session, error) {
		if username == "" || password == "" {
			return workflow.Session{}, ErrInvalidCredentials
		}
		token, expiresAt, err := utils.GenerateToken(0, username, "waiter", sessionID)
		if err != nil {
			return workflow.Session{}, err
		}
		return workflow.Session{
			Username:  username,
			Role:      "waiter",
			Token:     token,
			ExpiresAt: expiresAt,
		}, nil
	})
}

type gateFunc func(ctx context.Context, username, password string) (workflow.Session, error)

func (f gateFunc) Authenticate(ctx context.Context, username, password string) (workflow.Session, error) {
	return f(ctx, username, password)
}
