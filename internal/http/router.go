package api

import (
	"log"
	stdhttp "net/http"

	intconfig "tourbook/internal/config"
	"tourbook/internal/domain"
	h "tourbook/internal/http/handlers"
	"tourbook/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter mounts the public, customer and operator route groups. idem may be nil to
// disable Idempotency-Key handling.
func NewRouter(env intconfig.Env, hd *h.Handler, idem middleware.IdempotencyStore) *gin.Engine {
	h.RegisterValidators()

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Tracing(nil), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route not found",
			"code":       "not_found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", hd.Health)
		api.GET("/db-check", hd.DBCheck)
		api.GET("/routes", h.Routes(r))

		// Auth
		auth := api.Group("/auth")
		auth.POST("/register", hd.Register)
		auth.POST("/register-operator", hd.RegisterOperator)
		auth.POST("/login", hd.Login)

		// Public catalogue
		public := api.Group("/public")
		public.GET("/tours", hd.PublicListTours)
		public.GET("/tours/:id", hd.PublicGetTour)
		public.GET("/categories", hd.PublicListCategories)

		authed := api.Group("", middleware.Auth(hd.Auth))

		// Customer
		customer := authed.Group("/customer", middleware.RequireRoles(domain.RoleCustomer))
		mountCustomer(customer, hd, middleware.Idempotency(idem))

		// Operator
		admin := authed.Group("/admin", middleware.RequireRoles(domain.RoleOperator))
		mountAdmin(admin, hd, middleware.Idempotency(idem))
	}

	return r
}

func mountCustomer(g *gin.RouterGroup, hd *h.Handler, idem gin.HandlerFunc) {
	g.GET("/profile", hd.CustomerProfile)
	g.PUT("/profile", hd.UpdateCustomerProfile)

	g.GET("/bookings", hd.ListBookings)
	g.POST("/bookings", idem, hd.CreateBooking)
	g.GET("/bookings/:id", hd.GetBooking)
	g.POST("/bookings/:id/cancel", hd.CancelBooking)
	g.GET("/bookings/:id/travelers", hd.ListTravelers)
	g.POST("/bookings/:id/travelers", hd.AddTravelers)
	g.POST("/bookings/:id/payments", idem, hd.CreatePayment)
	g.GET("/bookings/:id/invoice", hd.BookingInvoice)
	g.GET("/payments", hd.ListPayments)
	g.GET("/payments/:id", hd.GetPayment)
}

func mountAdmin(g *gin.RouterGroup, hd *h.Handler, idem gin.HandlerFunc) {
	g.GET("/profile", hd.OperatorProfile)
	g.PUT("/profile", hd.UpdateOperatorProfile)

	// Tours & spots
	g.GET("/tours", hd.ListTours)
	g.POST("/tours", hd.CreateTour)
	g.GET("/tours/:id", hd.GetTour)
	g.PUT("/tours/:id", hd.UpdateTour)
	g.DELETE("/tours/:id", hd.DeleteTour)
	g.PUT("/tours/:id/publish", hd.PublishTour)
	g.PUT("/tours/:id/status", hd.SetTourStatus)
	g.GET("/tours/:id/spots", hd.ListSpots)
	g.POST("/tours/:id/spots", hd.CreateSpot)
	g.GET("/spots/:id", hd.GetSpot)
	g.PUT("/spots/:id", hd.UpdateSpot)
	g.DELETE("/spots/:id", hd.DeleteSpot)
	g.POST("/spots/:id/cancel", hd.CancelSpot)
	g.GET("/spots/:id/manifest", hd.SpotManifest)

	// Bookings & travelers
	g.GET("/bookings", hd.ListBookings)
	g.POST("/bookings", idem, hd.CreateBooking)
	g.GET("/bookings/:id", hd.GetBooking)
	g.POST("/bookings/:id/cancel", hd.CancelBooking)
	g.POST("/bookings/:id/complete", hd.CompleteBooking)
	g.GET("/bookings/:id/travelers", hd.ListTravelers)
	g.POST("/bookings/:id/travelers", hd.AddTravelers)
	g.DELETE("/travelers/:id", hd.DeleteTraveler)
	g.GET("/bookings/:id/invoice", hd.BookingInvoice)

	// Payments
	g.GET("/payments", hd.ListPayments)
	g.GET("/payments/:id", hd.GetPayment)
	g.POST("/bookings/:id/payments", idem, hd.CreatePayment)
	g.POST("/payments/:id/complete", idem, hd.CompletePayment)
	g.POST("/payments/:id/fail", hd.FailPayment)
	g.POST("/payments/:id/refund", idem, hd.RefundPayment)

	// Customers & categories
	g.GET("/customers", hd.ListCustomers)
	g.GET("/customers/:id", hd.GetCustomer)
	g.GET("/categories", hd.ListCategories)
	g.POST("/categories", hd.CreateCategory)
	g.PUT("/categories/:id", hd.UpdateCategory)
	g.DELETE("/categories/:id", hd.DeleteCategory)

	// Analytics & uploads
	g.GET("/analytics/summary", hd.AnalyticsSummary)
	g.GET("/analytics/revenue", hd.AnalyticsRevenue)
	g.GET("/analytics/tours", hd.AnalyticsTours)
	g.GET("/uploads/signature", hd.UploadSignature)
}
