package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/middlewares"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
	"github.com/yeremiapane/table-reservation/workflow"
	"gorm.io/gorm"
)

// DashboardController drives the staff table status workflow. Every route
// after login needs a token issued for the same session.
type DashboardController struct {
	Registry *services.SessionRegistry
	DB       *gorm.DB
}

func NewDashboardController(reg *services.SessionRegistry, db *gorm.DB) *DashboardController {
	return &DashboardController{Registry: reg, DB: db}
}

func (dc *DashboardController) CreateSession(c *gin.Context) {
	id, wf := dc.Registry.CreateDashboard()
	utils.RespondJSON(c, http.StatusCreated, "Staff session started", gin.H{
		"session_id": id,
		"stage":      wf.Stage(),
	})
}

func (dc *DashboardController) Login(c *gin.Context) {
	wf, ok := dc.Registry.Dashboard(c.Param("session_id"))
	if !ok {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := wf.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", session)
}

func (dc *DashboardController) GetDashboard(c *gin.Context) {
	wf, ok := dc.authorized(c)
	if !ok {
		return
	}
	view, err := wf.View(c.Request.Context())
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard", view)
}

func (dc *DashboardController) SelectTable(c *gin.Context) {
	wf, ok := dc.authorized(c)
	if !ok {
		return
	}
	tableID, ok := tableParam(c)
	if !ok {
		return
	}
	if err := wf.SelectTable(c.Request.Context(), tableID); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	dc.respondView(c, wf, "Status menu opened")
}

func (dc *DashboardController) CloseMenu(c *gin.Context) {
	wf, ok := dc.authorized(c)
	if !ok {
		return
	}
	if err := wf.CloseMenu(); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	dc.respondView(c, wf, "Status menu closed")
}

// UpdateTableStatus -> ubah status meja lewat workflow
func (dc *DashboardController) UpdateTableStatus(c *gin.Context) {
	wf, ok := dc.authorized(c)
	if !ok {
		return
	}
	tableID, ok := tableParam(c)
	if !ok {
		return
	}
	var change workflow.StatusChange
	if err := c.ShouldBindJSON(&change); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := wf.SetStatus(c.Request.Context(), tableID, change)
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", newTableResponse(table))
}

// Logout ends the staff session and revokes its token.
func (dc *DashboardController) Logout(c *gin.Context) {
	wf, ok := dc.authorized(c)
	if !ok {
		return
	}
	if err := wf.Logout(); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}

	expires, _ := c.Get(middlewares.CtxTokenExpires)
	until, ok := expires.(time.Time)
	if !ok {
		until = time.Now().Add(24 * time.Hour)
	}
	utils.RevokeToken(c.GetString(middlewares.CtxToken), until)
	utils.RespondJSON(c, http.StatusOK, "Logged out", gin.H{"stage": wf.Stage()})
}

// GetProfile -> data staff dari token
func (dc *DashboardController) GetProfile(c *gin.Context) {
	if _, ok := dc.authorized(c); !ok {
		return
	}
	userID, _ := c.Get(middlewares.CtxUserID)
	id, _ := userID.(uint)
	if id == 0 {
		utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
			"username": c.GetString(middlewares.CtxUsername),
			"role":     c.GetString(middlewares.CtxRole),
		})
		return
	}

	var user models.User
	if err := dc.DB.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"id":       user.ID,
		"name":     user.Name,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

func (dc *DashboardController) respondView(c *gin.Context, wf *workflow.TableStatusWorkflow, msg string) {
	view, err := wf.View(c.Request.Context())
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, msg, view)
}

// authorized resolves the session named in the path and checks that the
// bearer token was issued to it and is still the live one.
func (dc *DashboardController) authorized(c *gin.Context) (*workflow.TableStatusWorkflow, bool) {
	sessionID := c.Param("session_id")
	if c.GetString(middlewares.CtxSessionID) != sessionID {
		utils.RespondError(c, statusFor(ErrSessionMismatch), ErrSessionMismatch)
		return nil, false
	}
	wf, ok := dc.Registry.Dashboard(sessionID)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return nil, false
	}
	session, ok := wf.Session()
	if !ok || session.Token != c.GetString(middlewares.CtxToken) {
		utils.RespondError(c, statusFor(ErrNotLoggedIn), ErrNotLoggedIn)
		return nil, false
	}
	return wf, true
}

func tableParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("table_id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("table_id must be a positive number"))
		return 0, false
	}
	return uint(id), true
}
