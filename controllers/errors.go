package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-seating/services"
	"github.com/yeremiapane/restaurant-seating/utils"
)

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var (
	ErrInvalidID        = &CustomError{"id must be a positive integer"}
	ErrInvalidPartySize = &CustomError{"party_size must be a positive integer"}
	ErrInvalidTime      = &CustomError{"time must be RFC3339, e.g. 2024-05-01T19:30:00+07:00"}
	ErrInvalidDate      = &CustomError{"date must be YYYY-MM-DD"}
)

// conflictResponse is the 409 payload: what went wrong plus tables the
// terminal can pick from instead.
type conflictResponse struct {
	TableID      uint                      `json:"table_id"`
	Reason       string                    `json:"reason"`
	Alternatives []services.Recommendation `json:"alternatives"`
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}

func parseOptionalID(raw string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, ErrInvalidID
	}
	v := uint(id)
	return &v, nil
}

// respondServiceError maps the seating error taxonomy onto HTTP. On a
// conflict with a known target it re-runs the search so the caller can
// retry straight away.
func respondServiceError(c *gin.Context, svc *services.SeatingService, target *services.Target, err error) {
	var conflict *services.ConflictError
	switch {
	case errors.As(err, &conflict):
		resp := conflictResponse{
			TableID:      conflict.TableID,
			Reason:       conflict.Reason,
			Alternatives: []services.Recommendation{},
		}
		if target != nil {
			alts, altErr := svc.Alternatives(c.Request.Context(), *target)
			if altErr != nil {
				utils.ErrorLogger.WithError(altErr).Warn("re-running table search after conflict")
			} else {
				resp.Alternatives = alts
			}
		}
		utils.RespondErrorData(c, http.StatusConflict, err, resp)
	case errors.Is(err, services.ErrValidation):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.ErrorLogger.WithError(err).WithField("path", c.FullPath()).Error("seating operation failed")
		utils.RespondError(c, http.StatusServiceUnavailable, err)
	}
}
