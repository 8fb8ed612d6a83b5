package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/crossborder-tracker/internal/api/docs"
	"github.com/99minutos/crossborder-tracker/internal/api/handler"
	"github.com/99minutos/crossborder-tracker/internal/api/middleware"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/pkg/validate"
)

// Deps are the core services the HTTP layer fronts.
type Deps struct {
	Bookings  ports.BookingService
	Shipments handler.ShipmentService
	Sync      handler.DomesticSyncer
	Simulate  handler.Simulator
	Stuck     handler.StuckDetector
	Probes    []handler.Probe
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Prometheus collectors register on the default registry, so call it once
// per process.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Correlation())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("crossborder"))

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Probes...)

	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- v1 ---
	shipmentHandler := handler.NewShipmentHandler(d.Bookings, d.Shipments)
	jobHandler := handler.NewJobHandler(d.Sync, d.Simulate, d.Stuck)

	v1 := e.Group("/v1")
	v1.POST("/bookings", shipmentHandler.Book)
	v1.GET("/shipments/:id", shipmentHandler.Get)
	v1.GET("/shipments/:id/timeline", shipmentHandler.Timeline)
	v1.POST("/shipments/:id/transitions", shipmentHandler.Transition)

	v1.POST("/jobs/domestic-sync", jobHandler.DomesticSync)
	v1.POST("/jobs/international-simulation", jobHandler.InternationalSimulation)
	v1.POST("/jobs/stuck-detection", jobHandler.StuckDetection)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
