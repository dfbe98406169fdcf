package app

import (
	"github.com/gin-gonic/gin"

	"github.com/villastay/backend/internal/auth"
	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/calendarfeed"
	"github.com/villastay/backend/internal/coupons"
	"github.com/villastay/backend/internal/middleware"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/internal/notifications"
	"github.com/villastay/backend/internal/pricing"
	"github.com/villastay/backend/internal/reservations"
	"github.com/villastay/backend/internal/settings"
	"github.com/villastay/backend/pkg/response"
)

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	logger := a.Logger
	authHandler := auth.NewHandler(a.Users, a.JWT, logger)
	availHandler := availability.NewHandler(a.Resolver, a.Blocks, a.Catalog, logger)
	pricingHandler := pricing.NewHandler(a.Engine, a.PricingAdmin, logger)
	couponHandler := coupons.NewHandler(a.Coupons, logger)
	settingsHandler := settings.NewHandler(a.Settings, logger)
	reservationHandler := reservations.NewHandler(a.Reservations, logger)
	notificationHandler := notifications.NewHandler(a.Notifications, a.ReservationDB, a.Notifier, logger)
	feedHandler := calendarfeed.NewHandler(a.Feed, a.Config.Booking.FeedToken, logger)
	if a.FeedPublisher != nil {
		feedHandler.WithPublisher(a.FeedPublisher)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(a.Config.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(a.Metrics))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public booking surface
	router.GET("/availability/check", availHandler.Check)
	router.GET("/availability/calendar", availHandler.Calendar)
	router.POST("/quotes", pricingHandler.Quote)
	router.POST("/coupons/validate", couponHandler.Validate)
	router.GET("/coupons/public", couponHandler.ListPublic)
	router.GET("/calendar.ics", feedHandler.ICS)

	api := router.Group("")
	api.Use(middleware.JWT(a.JWT))
	{
		api.GET("/auth/me", authHandler.Me)

		api.POST("/reservations", reservationHandler.Create)
		api.GET("/reservations/mine", reservationHandler.Mine)
		api.GET("/reservations/:id", reservationHandler.Get)
		api.POST("/reservations/:id/submit", reservationHandler.Submit)
		api.POST("/reservations/:id/cancel", reservationHandler.Cancel)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", authHandler.List)

		admin.GET("/property", pricingHandler.GetProperty)
		admin.PUT("/property", pricingHandler.SaveProperty)
		admin.GET("/seasons", pricingHandler.ListSeasons)
		admin.POST("/seasons", pricingHandler.CreateSeason)
		admin.PUT("/seasons/:id", pricingHandler.UpdateSeason)
		admin.DELETE("/seasons/:id", pricingHandler.DeleteSeason)
		admin.GET("/custom-pricing", pricingHandler.ListCustomPricing)
		admin.PUT("/custom-pricing/:date", pricingHandler.SetCustomPricing)
		admin.DELETE("/custom-pricing/:date", pricingHandler.ClearCustomPricing)

		admin.GET("/blocked-periods", availHandler.ListBlocks)
		admin.POST("/blocked-periods", availHandler.CreateBlock)
		admin.DELETE("/blocked-periods/:id", availHandler.DeleteBlock)

		admin.GET("/coupons", couponHandler.List)
		admin.POST("/coupons", couponHandler.Create)
		admin.GET("/coupons/:id", couponHandler.Get)
		admin.PUT("/coupons/:id", couponHandler.Update)

		admin.GET("/calendar-feed", feedHandler.PublishedURL)

		admin.GET("/settings", settingsHandler.Get)
		admin.PUT("/settings", settingsHandler.Update)

		admin.GET("/reservations", reservationHandler.List)
		admin.POST("/reservations/:id/approve", reservationHandler.Approve)
		admin.POST("/reservations/:id/decline", reservationHandler.Decline)
		admin.POST("/reservations/:id/cancel", reservationHandler.Cancel)
		admin.POST("/reservations/:id/pay", reservationHandler.MarkPaid)
		admin.POST("/reservations/:id/reschedule", reservationHandler.Reschedule)
		admin.GET("/reservations/:id/notifications", notificationHandler.List)
		admin.POST("/reservations/:id/notifications/resend", notificationHandler.Resend)
	}
	return router
}
