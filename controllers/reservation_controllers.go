package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-seating/models"
	"github.com/yeremiapane/restaurant-seating/services"
	"github.com/yeremiapane/restaurant-seating/utils"
)

type ReservationController struct {
	Service *services.SeatingService
}

func NewReservationController(svc *services.SeatingService) *ReservationController {
	return &ReservationController{Service: svc}
}

type reservationRequest struct {
	GuestName       string    `json:"guest_name"`
	GuestPhone      string    `json:"guest_phone"`
	GuestEmail      *string   `json:"guest_email"`
	PartySize       int       `json:"party_size"`
	RequestedAt     time.Time `json:"requested_at"`
	Notes           string    `json:"notes"`
	SpecialRequests string    `json:"special_requests"`
	TableID         *uint     `json:"table_id"`
}

func (r reservationRequest) input(id uint) services.ReservationInput {
	return services.ReservationInput{
		ID:              id,
		GuestName:       r.GuestName,
		GuestPhone:      r.GuestPhone,
		GuestEmail:      r.GuestEmail,
		PartySize:       r.PartySize,
		RequestedAt:     r.RequestedAt,
		Notes:           r.Notes,
		SpecialRequests: r.SpecialRequests,
		TableID:         r.TableID,
	}
}

// GetReservations -> reservations for ?date=YYYY-MM-DD (today by default)
func (rc *ReservationController) GetReservations(c *gin.Context) {
	var day time.Time
	if raw := c.Query("date"); raw != "" {
		var err error
		day, err = time.ParseInLocation("2006-01-02", raw, rc.Service.Location())
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, ErrInvalidDate)
			return
		}
	}

	list, err := rc.Service.ListReservations(c.Request.Context(), day)
	if err != nil {
		respondServiceError(c, rc.Service, nil, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", list)
}

// CreateReservation -> book, optionally straight onto a table
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	rc.save(c, 0, req, http.StatusCreated, "Reservation created")
}

// UpdateReservation -> edit guest details, time or table
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, err := parseID(c, "reservation_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	rc.save(c, id, req, http.StatusOK, "Reservation updated")
}

func (rc *ReservationController) save(c *gin.Context, id uint, req reservationRequest, code int, message string) {
	savedID, err := rc.Service.CreateOrUpdateReservation(c.Request.Context(), req.input(id))
	if err != nil {
		var target *services.Target
		if id != 0 {
			target = &services.Target{Kind: services.KindReservation, ID: id}
		}
		respondServiceError(c, rc.Service, target, err)
		return
	}
	utils.RespondJSON(c, code, message, gin.H{"id": savedID})
}

// UpdateReservationStatus -> seat, complete, cancel or mark no-show
func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, err := parseID(c, "reservation_id")
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

	res, err := rc.Service.ChangeReservationStatus(c.Request.Context(), id, models.ReservationStatus(body.Status))
	if err != nil {
		respondServiceError(c, rc.Service, &services.Target{Kind: services.KindReservation, ID: id}, err)
		return
	}
	utils.InfoLogger.Printf("Reservation %d status changed to %s", res.ID, res.Status)
	utils.RespondJSON(c, http.StatusOK, "Reservation status updated", res)
}
