package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/controllers"
	"github.com/yeremiapane/table-reservation/hub"
	"github.com/yeremiapane/table-reservation/middlewares"
	"github.com/yeremiapane/table-reservation/services"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	DB       *gorm.DB
	Tables   *services.TableStore
	Bookings *services.BookingStore
	Registry *services.SessionRegistry
	Hub      *hub.Hub

	CORSOrigin string
	Production bool
	BcryptCost int
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders(d.Production))
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(50, time.Second).RateLimit())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(d.DB, d.BcryptCost)
	tableCtrl := controllers.NewTableController(d.Tables)
	reservationCtrl := controllers.NewReservationController(d.Registry, d.Bookings)
	dashboardCtrl := controllers.NewDashboardController(d.Registry, d.DB)
	floorCtrl := controllers.NewFloorController(d.Hub, d.Tables, d.CORSOrigin)

	strict := middlewares.NewStrictLimiter(12*time.Second, 5).Limit()

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/register", strict, userCtrl.Register)

	tables := r.Group("/tables")
	{
		tables.GET("", tableCtrl.GetAllTables)
		tables.GET("/by-status", tableCtrl.FindTablesByStatus)
		tables.GET("/stats", tableCtrl.GetStats)
		tables.GET("/:table_id", tableCtrl.GetTableByID)
	}

	// -- CUSTOMER (Tanpa Auth) --
	reservations := r.Group("/reservations")
	{
		reservations.GET("/options", reservationCtrl.GetOptions)
		reservations.POST("/sessions", reservationCtrl.CreateSession)
		reservations.GET("/sessions/:session_id", reservationCtrl.GetSession)
		reservations.DELETE("/sessions/:session_id", reservationCtrl.DeleteSession)
		reservations.POST("/sessions/:session_id/submit", reservationCtrl.Submit)
		reservations.POST("/sessions/:session_id/table", reservationCtrl.SelectTable)
		reservations.POST("/sessions/:session_id/time", reservationCtrl.ChooseTime)
		reservations.POST("/sessions/:session_id/notes", reservationCtrl.SetNotes)
		reservations.POST("/sessions/:session_id/confirm", reservationCtrl.Confirm)
		reservations.POST("/sessions/:session_id/back", reservationCtrl.Back)
		reservations.POST("/sessions/:session_id/reset", reservationCtrl.Reset)
		reservations.GET("/:reservation_id", reservationCtrl.GetReservation)
	}

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/staff/sessions")
	{
		staff.POST("", dashboardCtrl.CreateSession)
		staff.POST("/:session_id/login", strict, dashboardCtrl.Login)
	}

	auth := staff.Group("/:session_id")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("", dashboardCtrl.GetDashboard)
		auth.GET("/profile", dashboardCtrl.GetProfile)
		auth.POST("/tables/:table_id/select", dashboardCtrl.SelectTable)
		auth.POST("/menu/close", dashboardCtrl.CloseMenu)
		auth.PATCH("/tables/:table_id/status", middlewares.RequireRole(middlewares.StaffRoles...), dashboardCtrl.UpdateTableStatus)
		auth.POST("/logout", dashboardCtrl.Logout)
	}

	// WebSocket endpoint dengan middleware khusus
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/floor", floorCtrl.FloorHandler)
	}

	return r
}
