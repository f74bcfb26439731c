package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-seating/broadcast"
	"github.com/yeremiapane/restaurant-seating/controllers"
	"github.com/yeremiapane/restaurant-seating/middlewares"
	"github.com/yeremiapane/restaurant-seating/services"
)

// Deps is everything the HTTP layer needs. RateLimiter may be nil.
type Deps struct {
	Service     *services.SeatingService
	Hub         *broadcast.Hub
	Log         logrus.FieldLogger
	CORSOrigin  string
	RateLimiter *middlewares.RateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if d.CORSOrigin == "" {
		d.CORSOrigin = "*"
	}

	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware(d.Log))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.RateLimit())
	}

	tableCtrl := controllers.NewTableController(d.Service)
	reservationCtrl := controllers.NewReservationController(d.Service)
	waitlistCtrl := controllers.NewWaitlistController(d.Service)
	floorCtrl := controllers.NewFloorController(d.Hub, d.CORSOrigin)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// TABLES
	r.GET("/tables", tableCtrl.GetAllTables)
	r.GET("/tables/recommendations", tableCtrl.GetRecommendations)
	r.PATCH("/tables/:table_id/vacate", tableCtrl.VacateTable)
	r.PATCH("/tables/:table_id/clean", tableCtrl.MarkTableClean)

	// RESERVATIONS
	r.GET("/reservations", reservationCtrl.GetReservations)
	r.POST("/reservations", reservationCtrl.CreateReservation)
	r.PUT("/reservations/:reservation_id", reservationCtrl.UpdateReservation)
	r.PATCH("/reservations/:reservation_id/status", reservationCtrl.UpdateReservationStatus)

	// WAITLIST
	r.GET("/waitlist", waitlistCtrl.GetWaitlist)
	r.POST("/waitlist", waitlistCtrl.CreateEntry)
	r.PUT("/waitlist/:entry_id", waitlistCtrl.UpdateEntry)
	r.PATCH("/waitlist/:entry_id/status", waitlistCtrl.UpdateEntryStatus)
	r.POST("/waitlist/:entry_id/assign", waitlistCtrl.AssignTable)

	// Floor terminals
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.FloorTerminalMiddleware())
	{
		wsGroup.GET("/floor", floorCtrl.FloorHandler)
	}

	return r
}
