package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/table-booking/internal/audit"
	"github.com/BruksfildServices01/table-booking/internal/config"
	"github.com/BruksfildServices01/table-booking/internal/handlers"
	infraRepo "github.com/BruksfildServices01/table-booking/internal/infra/repository"
	"github.com/BruksfildServices01/table-booking/internal/metrics"
	"github.com/BruksfildServices01/table-booking/internal/middleware"
	"github.com/BruksfildServices01/table-booking/internal/queue"
	"github.com/BruksfildServices01/table-booking/internal/storage"
	ucBooking "github.com/BruksfildServices01/table-booking/internal/usecase/booking"
)

// Deps are the process-wide collaborators the routes are built from.
// Redis, Images and Publisher may be nil.
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Log       zerolog.Logger
	Redis     *redis.Client
	Publisher queue.Publisher
	Images    storage.ImageStore
	Audit     *audit.Dispatcher
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(
		middleware.RequestLogger(d.Log),
		middleware.CORSMiddleware(cfg.CORSOrigins),
		metrics.Middleware(),
		middleware.Timeout(cfg.RequestTimeout),
	)

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	bookingRepo := infraRepo.NewBookingGormRepository(d.DB)

	policy := ucBooking.Policy{
		RejectPast:      cfg.RejectPastBookings,
		DefaultTimezone: cfg.DefaultTimezone,
	}
	admission := ucBooking.NewAdmission(bookingRepo, ucBooking.AdmissionConfig{
		MaxRetries: cfg.AdmissionMaxRetries,
		Backoff:    cfg.AdmissionRetryBackoff,
	}, d.Log)
	notifier := ucBooking.NewNotifier(d.Audit, d.Publisher, d.Log)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, d.Redis, d.Log)

	// ======================================================
	// USE CASES: BOOKINGS
	// ======================================================
	availabilityUC := ucBooking.NewComputeAvailableSeats(bookingRepo, policy)
	createBookingUC := ucBooking.NewCreateBooking(bookingRepo, admission, notifier, policy)
	updateBookingUC := ucBooking.NewUpdateBooking(bookingRepo, admission, notifier, policy)
	cancelBookingUC := ucBooking.NewCancelBooking(bookingRepo, notifier, policy)
	getBookingUC := ucBooking.NewGetBooking(bookingRepo)
	listBookingsByDateUC := ucBooking.NewListBookingsByDate(bookingRepo, policy)

	// ======================================================
	// HANDLERS
	// ======================================================
	healthHandler := handlers.NewHealthHandler(d.DB)
	authHandler := handlers.NewAuthHandler(d.DB, cfg, d.Publisher, d.Log)
	meHandler := handlers.NewMeHandler(d.DB)
	restaurantHandler := handlers.NewRestaurantHandler(d.DB, bookingRepo, cfg, d.Images, d.Audit, listBookingsByDateUC, d.Log)
	workingHoursHandler := handlers.NewWorkingHoursHandler(d.DB, d.Audit)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	bookingHandler := handlers.NewBookingHandler(
		availabilityUC,
		createBookingUC,
		updateBookingUC,
		cancelBookingUC,
		getBookingUC,
	)

	// ======================================================
	// OPERATIONAL
	// ======================================================
	r.GET("/health", healthHandler.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error_code": "route_not_found", "message": "route not found"})
	})

	// ======================================================
	// API (JSON)
	// ======================================================
	auth := middleware.AuthMiddleware(cfg)
	limited := limiter.Middleware()

	api := r.Group("/api")
	{
		api.GET("/availability", bookingHandler.Availability)

		// ------------------------------
		// USERS
		// ------------------------------
		users := api.Group("/users")
		{
			users.POST("/signup", limited, authHandler.Signup)
			users.POST("/login", limited, authHandler.Login)
			users.GET("/verify/:token", authHandler.Verify)
			users.GET("/me", auth, meHandler.GetMe)
		}

		// ------------------------------
		// BOOKINGS
		// ------------------------------
		bookings := api.Group("/bookings")
		{
			bookings.GET("/seats/:restaurantId", bookingHandler.Seats)
			bookings.POST("", limited, bookingHandler.Create)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.PUT("/:id", limited, bookingHandler.Update)
			bookings.DELETE("/:id", limited, bookingHandler.Cancel)
		}

		// ------------------------------
		// RESTAURANTS
		// ------------------------------
		restaurants := api.Group("/restaurants")
		{
			restaurants.GET("", restaurantHandler.List)
			restaurants.GET("/my-restaurants", auth, restaurantHandler.Mine)
			restaurants.POST("/register", auth, restaurantHandler.Register)

			restaurants.GET("/:id", restaurantHandler.Get)
			restaurants.PUT("/:id", auth, restaurantHandler.Update)
			restaurants.DELETE("/:id", auth, restaurantHandler.Delete)

			restaurants.GET("/:id/working-hours", workingHoursHandler.Get)
			restaurants.PUT("/:id/working-hours", auth, workingHoursHandler.Update)

			restaurants.GET("/:id/bookings", auth, restaurantHandler.Bookings)
			restaurants.GET("/:id/bookings/export", auth, restaurantHandler.ExportBookings)
			restaurants.GET("/:id/audit-logs", auth, auditLogsHandler.List)
		}
	}
}
