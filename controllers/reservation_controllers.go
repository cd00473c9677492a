package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
	"github.com/yeremiapane/table-reservation/workflow"
)

// ReservationFinder looks up confirmed reservations.
type ReservationFinder interface {
	FindReservation(ctx context.Context, id string) (workflow.ConfirmedReservation, error)
}

// ReservationController drives one customer booking flow per session.
type ReservationController struct {
	Registry *services.SessionRegistry
	Finder   ReservationFinder
}

func NewReservationController(reg *services.SessionRegistry, finder ReservationFinder) *ReservationController {
	return &ReservationController{Registry: reg, Finder: finder}
}

// GetOptions -> party sizes and time slots for the booking form
func (rc *ReservationController) GetOptions(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Reservation options", gin.H{
		"party_sizes":        workflow.PartySizeOptions(),
		"time_slots":         workflow.TimeSlots,
		"default_party_size": workflow.DefaultPartySize,
	})
}

func (rc *ReservationController) CreateSession(c *gin.Context) {
	id, wf := rc.Registry.CreateReservation()
	utils.RespondJSON(c, http.StatusCreated, "Reservation session started", gin.H{
		"session_id": id,
		"view":       wf.View(),
	})
}

func (rc *ReservationController) GetSession(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation session", wf.View())
}

// DeleteSession abandons the flow and forgets the session.
func (rc *ReservationController) DeleteSession(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	if err := wf.Cancel(); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	rc.Registry.DropReservation(c.Param("session_id"))
	utils.RespondJSON(c, http.StatusOK, "Reservation session closed", nil)
}

func (rc *ReservationController) Submit(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	var req struct {
		Date      string `json:"date"`
		PartySize *int   `json:"party_size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	size := workflow.DefaultPartySize
	if req.PartySize != nil {
		size = *req.PartySize
	}

	if err := wf.SubmitInitial(c.Request.Context(), req.Date, size); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Choose a table", wf.View())
}

// SelectTable responds 200 either way. Picking an unavailable table is a
// no-op and reported through "selected".
func (rc *ReservationController) SelectTable(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	var req struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	selected, err := wf.SelectTable(req.TableID)
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	msg := "Table selected"
	if !selected {
		msg = "Table is not available"
	}
	utils.RespondJSON(c, http.StatusOK, msg, gin.H{
		"selected": selected,
		"view":     wf.View(),
	})
}

func (rc *ReservationController) ChooseTime(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	var req struct {
		Time string `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := wf.ChooseTime(req.Time); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Time selected", wf.View())
}

func (rc *ReservationController) SetNotes(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := wf.SetNotes(req.Notes); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notes saved", wf.View())
}

func (rc *ReservationController) Confirm(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	confirmed, err := wf.Confirm(c.Request.Context())
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation confirmed", gin.H{
		"reservation": confirmed,
		"view":        wf.View(),
	})
}

func (rc *ReservationController) Back(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	if err := wf.Back(); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Went back", wf.View())
}

// Reset starts a new booking after a confirmation.
func (rc *ReservationController) Reset(c *gin.Context) {
	wf, ok := rc.session(c)
	if !ok {
		return
	}
	if err := wf.Reset(); err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "New reservation", wf.View())
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	r, err := rc.Finder.FindReservation(c.Request.Context(), c.Param("reservation_id"))
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", r)
}

func (rc *ReservationController) session(c *gin.Context) (*workflow.ReservationWorkflow, bool) {
	wf, ok := rc.Registry.Reservation(c.Param("session_id"))
	if !ok {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return nil, false
	}
	return wf, true
}
