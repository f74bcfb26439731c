package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-seating/models"
	"github.com/yeremiapane/restaurant-seating/services"
	"github.com/yeremiapane/restaurant-seating/utils"
)

type TableController struct {
	Service *services.SeatingService
}

func NewTableController(svc *services.SeatingService) *TableController {
	return &TableController{Service: svc}
}

// floorStats counts tables per displayed status.
type floorStats struct {
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Occupied  int `json:"occupied"`
	Dirty     int `json:"dirty"`
	Merged    int `json:"merged"`
}

func statsOf(views []services.TableView) floorStats {
	var s floorStats
	for _, v := range views {
		switch v.DisplayStatus {
		case models.TableAvailable:
			s.Available++
		case models.TableReserved:
			s.Reserved++
		case models.TableOccupied:
			s.Occupied++
		case models.TableDirty:
			s.Dirty++
		}
		if v.IsPartOfMergedOrder {
			s.Merged++
		}
	}
	return s
}

// GetAllTables -> every active table with merge reconciliation applied
func (tc *TableController) GetAllTables(c *gin.Context) {
	views, err := tc.Service.ListTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, tc.Service, nil, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", gin.H{
		"tables": views,
		"stats":  statsOf(views),
	})
}

// GetRecommendations -> ranked tables for a party at a given time
func (tc *TableController) GetRecommendations(c *gin.Context) {
	partySize, err := strconv.Atoi(c.Query("party_size"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidPartySize)
		return
	}

	var at time.Time
	if raw := c.Query("at"); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, ErrInvalidTime)
			return
		}
	}

	excludeTable, err := parseOptionalID(c.Query("exclude_table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	excludeReservation, err := parseOptionalID(c.Query("exclude_reservation_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	recs, err := tc.Service.FindBestTables(c.Request.Context(), partySize, at, excludeTable, excludeReservation)
	if err != nil {
		respondServiceError(c, tc.Service, nil, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recommended tables", recs)
}

// VacateTable -> party has left, table goes to dirty
func (tc *TableController) VacateTable(c *gin.Context) {
	id, err := parseID(c, "table_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Service.VacateTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, tc.Service, nil, err)
		return
	}
	utils.InfoLogger.Printf("Table %s vacated", table.TableNumber)
	utils.RespondJSON(c, http.StatusOK, "Table vacated", table)
}

// MarkTableClean -> busser marks a dirty table ready
func (tc *TableController) MarkTableClean(c *gin.Context) {
	id, err := parseID(c, "table_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Service.MarkTableClean(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, tc.Service, nil, err)
		return
	}
	utils.InfoLogger.Printf("Table %s marked clean", table.TableNumber)
	utils.RespondJSON(c, http.StatusOK, "Table marked as clean", table)
}
