package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/geekskaran/Cattel-Backend/src/internal/api/handlers"
)

// registerRoutes wires every HTTP endpoint
func (s *Server) registerRoutes() {
	authHandler := handlers.NewAuthHandler(s.auth, s.identity)
	cattleHandler := handlers.NewCattleHandler(s.registry)
	identificationHandler := handlers.NewIdentificationHandler(s.identify)
	transferHandler := handlers.NewTransferHandler(s.transfer)
	notificationHandler := handlers.NewNotificationHandler(s.notifier)
	adminHandler := handlers.NewAdminHandler(s.identify, s.transfer)

	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.echo.Group("/api/v1")

	api.POST("/auth/login", authHandler.Login)

	// Farmer-facing cattle endpoints
	api.POST("/cattle", cattleHandler.Register)
	api.GET("/cattle", cattleHandler.ListMine)
	api.GET("/cattle/:id", cattleHandler.Get)
	api.POST("/cattle/:id/archive", cattleHandler.Archive)
	api.POST("/cattle/:id/restore", cattleHandler.Restore)
	api.DELETE("/cattle/:id", cattleHandler.Delete)
	api.GET("/cattle/:id/history", transferHandler.History)

	// Verification workflow (admin tiers)
	api.POST("/cattle/:id/forward", cattleHandler.Forward)
	api.POST("/cattle/:id/deny", cattleHandler.Deny)
	api.POST("/cattle/:id/approve", cattleHandler.Approve)
	api.POST("/cattle/:id/reject", cattleHandler.Reject)

	// Identification requests
	api.POST("/identifications", identificationHandler.Create)
	api.GET("/identifications", identificationHandler.ListMine)
	api.GET("/identifications/:id", identificationHandler.Get)
	api.POST("/identifications/:id/start", identificationHandler.Start)
	api.POST("/identifications/:id/complete", identificationHandler.Complete)
	api.POST("/identifications/:id/fail", identificationHandler.Fail)
	api.POST("/identifications/:id/cancel", identificationHandler.Cancel)

	// Ownership transfers
	api.POST("/transfers", transferHandler.Initiate)
	api.GET("/transfers", transferHandler.List)
	api.POST("/transfers/:id/accept", transferHandler.Accept)
	api.POST("/transfers/:id/reject", transferHandler.Reject)
	api.POST("/transfers/:id/cancel", transferHandler.Cancel)

	// Notifications
	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	// Admin dashboards and maintenance
	admin := api.Group("/admin")
	admin.GET("/cattle", cattleHandler.ReviewQueue)
	admin.GET("/cattle/overdue", cattleHandler.Overdue)
	admin.GET("/identifications", identificationHandler.Queue)
	admin.GET("/identifications/stats", identificationHandler.Stats)
	admin.POST("/sweep", adminHandler.Sweep)
}
