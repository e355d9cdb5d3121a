package api

import (
	stdhttp "net/http"

	intconfig "charter/internal/config"
	"charter/internal/http/handlers"
	"charter/internal/http/middleware"
	"charter/internal/utils"

	"github.com/gin-gonic/gin"
)

func NewRouter(h *handlers.Handler, env intconfig.Env) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		gin.Recovery(),
		middleware.CORS(env.CORSAllowedOrigins),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.LogError("", "router", "trusted_proxies", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, handlers.ErrorResponse{
			Error:     "route not found: " + c.Request.Method + " " + c.Request.URL.Path,
			Code:      "not_found",
			RequestID: middleware.GetRequestID(c),
		})
	})

	r.GET("/metrics", handlers.Metrics())

	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", handlers.Routes)

		api.POST("/auth/login", h.Login)
		api.POST("/webhooks/stripe", h.StripeWebhook)

		public := api.Group("/public")
		public.POST("/offers", h.SubmitOffer)
		public.GET("/offers/view", h.ViewOfferByToken)
		public.POST("/offers/accept", h.AcceptOfferByToken)
		public.GET("/trips", h.PublicTrips)
		public.GET("/trips/:id/availability", h.Availability)
		public.POST("/trips/:id/checkout", h.Checkout)

		admin := api.Group("", middleware.RequireAdmin(h.Tokens), middleware.RequireRoles("admin"))
		admin.GET("/auth/me", h.Me)

		offers := admin.Group("/offers")
		offers.GET("", h.ListOffers)
		offers.POST("", h.CreateOffer)
		offers.GET("/:id", h.GetOffer)
		offers.PUT("/:id", h.UpdateOffer)
		offers.POST("/:id/proposal", h.SendOfferProposal)
		offers.POST("/:id/accept", h.AcceptOffer)
		offers.POST("/:id/cancel", h.CancelOffer)
		offers.PATCH("/:id/status", h.SetOfferStatus)
		offers.GET("/:id/pdf", h.OfferPDF)

		bookings := admin.Group("/bookings")
		bookings.GET("", h.ListBookings)
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
		admin.GET("/schedule", h.Schedule)

		drivers := admin.Group("/drivers")
		drivers.GET("", h.ListDrivers)
		drivers.POST("", h.CreateDriver)
		drivers.GET("/:id", h.GetDriver)
		drivers.PUT("/:id", h.UpdateDriver)
		drivers.DELETE("/:id", h.DeleteDriver)
		drivers.POST("/:id/avatar", h.UploadDriverAvatar)
		drivers.GET("/:id/documents", h.ListDriverDocuments)
		drivers.POST("/:id/documents", h.AddDriverDocument)
		drivers.DELETE("/:id/documents/:docId", h.DeleteDriverDocument)

		employees := admin.Group("/employees")
		employees.GET("", h.ListEmployees)
		employees.POST("", h.CreateEmployee)
		employees.GET("/:id", h.GetEmployee)
		employees.PUT("/:id", h.UpdateEmployee)
		employees.POST("/:id/avatar", h.UploadEmployeeAvatar)

		vehicles := admin.Group("/vehicles")
		vehicles.GET("", h.ListVehicles)
		vehicles.POST("", h.CreateVehicle)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.PUT("/:id", h.UpdateVehicle)

		trips := admin.Group("/trips")
		trips.GET("", h.ListTrips)
		trips.POST("", h.CreateTrip)
		trips.POST("/rebuild-cache", h.RebuildDepartureCaches)
		trips.GET("/:id", h.GetTrip)
		trips.PUT("/:id", h.UpdateTrip)
		trips.GET("/:id/departures", h.ListDepartures)
		trips.POST("/:id/departures", h.AddDeparture)
		trips.PUT("/:id/departures/:depId", h.UpdateDeparture)
		trips.DELETE("/:id/departures/:depId", h.DeleteDeparture)

		admin.GET("/tickets/:id/pdf", h.TicketPDF)

		agreements := admin.Group("/agreements")
		agreements.GET("", h.ListAgreements)
		agreements.POST("", h.CreateAgreement)
		agreements.GET("/:id", h.GetAgreement)
		agreements.PUT("/:id", h.UpdateAgreement)
		agreements.GET("/:id/pdf", h.AgreementPDF)

		profiles := admin.Group("/price-profiles")
		profiles.GET("", h.ListPriceProfiles)
		profiles.POST("", h.CreatePriceProfile)
		profiles.GET("/:id", h.GetPriceProfile)
		profiles.PUT("/:id", h.UpdatePriceProfile)
		profiles.POST("/:id/estimate", h.EstimatePrice)
	}

	handlers.SetRouter(r)
	return r
}
