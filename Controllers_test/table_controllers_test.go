package Controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-seating/controllers"
	"github.com/yeremiapane/restaurant-seating/models"
	"github.com/yeremiapane/restaurant-seating/services"
)

func setupTableRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	tableCtrl := controllers.NewTableController(newService(db))
	router.GET("/tables", tableCtrl.GetAllTables)
	router.GET("/tables/recommendations", tableCtrl.GetRecommendations)
	router.PATCH("/tables/:table_id/vacate", tableCtrl.VacateTable)
	router.PATCH("/tables/:table_id/clean", tableCtrl.MarkTableClean)
	return router
}

func TestGetAllTables(t *testing.T) {
	db := setupTestDB(t)
	a1 := seedTable(t, db, "A1", 4, "Window", models.TableAvailable)
	a2 := seedTable(t, db, "A2", 4, "Window", models.TableAvailable)
	seedTable(t, db, "B1", 2, "", models.TableOccupied)
	require.NoError(t, db.Create(&models.Order{Status: "in_progress", Tables: []models.Table{a1, a2}}).Error)

	router := setupTableRouter(db)
	w, resp := doRequest(t, router, http.MethodGet, "/tables", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "List of tables", resp.Message)

	var data struct {
		Tables []services.TableView `json:"tables"`
		Stats  struct {
			Available int `json:"available"`
			Occupied  int `json:"occupied"`
			Merged    int `json:"merged"`
		} `json:"stats"`
	}
	decodeData(t, resp, &data)
	require.Len(t, data.Tables, 3)
	assert.Equal(t, 0, data.Stats.Available)
	assert.Equal(t, 3, data.Stats.Occupied)
	assert.Equal(t, 2, data.Stats.Merged)
	assert.Equal(t, []string{"A2"}, data.Tables[0].MergedWith)
	assert.Equal(t, models.TableAvailable, data.Tables[0].Status)
	assert.Equal(t, models.TableOccupied, data.Tables[0].DisplayStatus)
}

func TestGetRecommendations(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "A1", 2, "Window", models.TableAvailable)
	seedTable(t, db, "A2", 6, "", models.TableAvailable)
	seedTable(t, db, "A3", 1, "", models.TableAvailable)

	router := setupTableRouter(db)
	w, resp := doRequest(t, router, http.MethodGet, "/tables/recommendations?party_size=2&at=2024-05-01T19:00:00Z", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Recommended tables", resp.Message)

	var recs []services.Recommendation
	decodeData(t, resp, &recs)
	require.Len(t, recs, 2)
	assert.Equal(t, "A1", recs[0].Table.TableNumber)
	assert.Equal(t, 90, recs[0].Score)
	assert.Contains(t, recs[0].Reasons, "Perfect fit")
}

func TestGetRecommendationsRejectsBadQuery(t *testing.T) {
	db := setupTestDB(t)
	router := setupTableRouter(db)

	for _, path := range []string{
		"/tables/recommendations",
		"/tables/recommendations?party_size=two",
		"/tables/recommendations?party_size=2&at=tonight",
		"/tables/recommendations?party_size=2&exclude_table_id=-1",
		"/tables/recommendations?party_size=0",
	} {
		w, resp := doRequest(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.False(t, resp.Status)
	}
}

func TestVacateAndCleanTable(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "C1", 4, "", models.TableOccupied)
	router := setupTableRouter(db)
	base := "/tables/" + strconv.Itoa(int(table.ID))

	w, resp := doRequest(t, router, http.MethodPatch, base+"/vacate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Table vacated", resp.Message)
	var vacated models.Table
	decodeData(t, resp, &vacated)
	assert.Equal(t, models.TableDirty, vacated.Status)

	w, _ = doRequest(t, router, http.MethodPatch, base+"/vacate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = doRequest(t, router, http.MethodPatch, base+"/clean", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Table marked as clean", resp.Message)

	var stored models.Table
	require.NoError(t, db.First(&stored, table.ID).Error)
	assert.Equal(t, models.TableAvailable, stored.Status)
}

func TestVacateUnknownTable(t *testing.T) {
	db := setupTestDB(t)
	router := setupTableRouter(db)

	w, _ := doRequest(t, router, http.MethodPatch, "/tables/99/vacate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, router, http.MethodPatch, "/tables/abc/vacate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
