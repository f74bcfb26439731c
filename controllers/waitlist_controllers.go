package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-seating/models"
	"github.com/yeremiapane/restaurant-seating/services"
	"github.com/yeremiapane/restaurant-seating/utils"
)

type WaitlistController struct {
	Service *services.SeatingService
}

func NewWaitlistController(svc *services.SeatingService) *WaitlistController {
	return &WaitlistController{Service: svc}
}

type waitlistRequest struct {
	GuestName         string `json:"guest_name"`
	GuestPhone        string `json:"guest_phone"`
	PartySize         int    `json:"party_size"`
	QuotedWaitMinutes int    `json:"quoted_wait_minutes"`
	NotifyWhenReady   bool   `json:"notify_when_ready"`
	Notes             string `json:"notes"`
}

func (r waitlistRequest) input(id uint) services.WaitlistInput {
	return services.WaitlistInput{
		ID:                id,
		GuestName:         r.GuestName,
		GuestPhone:        r.GuestPhone,
		PartySize:         r.PartySize,
		QuotedWaitMinutes: r.QuotedWaitMinutes,
		NotifyWhenReady:   r.NotifyWhenReady,
		Notes:             r.Notes,
	}
}

// GetWaitlist -> waiting and notified walk-ins, oldest first
func (wc *WaitlistController) GetWaitlist(c *gin.Context) {
	list, err := wc.Service.ListWaitlist(c.Request.Context())
	if err != nil {
		respondServiceError(c, wc.Service, nil, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waitlist", list)
}

// CreateEntry -> walk-in joins the queue
func (wc *WaitlistController) CreateEntry(c *gin.Context) {
	var req waitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	id, err := wc.Service.CreateOrUpdateWaitlistEntry(c.Request.Context(), req.input(0))
	if err != nil {
		respondServiceError(c, wc.Service, nil, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Added to waitlist", gin.H{"id": id})
}

// UpdateEntry -> edit a queued walk-in
func (wc *WaitlistController) UpdateEntry(c *gin.Context) {
	id, err := parseID(c, "entry_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req waitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := wc.Service.CreateOrUpdateWaitlistEntry(c.Request.Context(), req.input(id)); err != nil {
		respondServiceError(c, wc.Service, nil, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waitlist entry updated", gin.H{"id": id})
}

// UpdateEntryStatus -> notify or remove
func (wc *WaitlistController) UpdateEntryStatus(c *gin.Context) {
	id, err := parseID(c, "entry_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := wc.Service.ChangeWaitlistStatus(c.Request.Context(), id, models.WaitlistStatus(body.Status))
	if err != nil {
		respondServiceError(c, wc.Service, nil, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waitlist status updated", entry)
}

// AssignTable -> seat the walk-in at a table
func (wc *WaitlistController) AssignTable(c *gin.Context) {
	id, err := parseID(c, "entry_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var body struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := wc.Service.AssignTableToWaitlistEntry(c.Request.Context(), id, body.TableID)
	if err != nil {
		respondServiceError(c, wc.Service, &services.Target{Kind: services.KindWaitlist, ID: id}, err)
		return
	}
	utils.InfoLogger.Printf("Waitlist entry %d seated at table %d", entry.ID, body.TableID)
	utils.RespondJSON(c, http.StatusOK, "Walk-in seated", entry)
}
