package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

const CorrelationIDHeader = "Correlation-ID"

type BookingService interface {
	CreateBooking(ctx context.Context, req bookings.Request) (bookings.BookingConfirmation, error)
	CancelBooking(ctx context.Context, id uuid.UUID) (bookings.Booking, error)
	AmendBooking(ctx context.Context, id uuid.UUID, amendment bookings.Amendment) (bookings.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (bookings.Booking, error)
	ListBookings(ctx context.Context) ([]bookings.Summary, error)
	Availability(ctx context.Context, from, to string) ([]inventory.Record, error)
}

type ServerConfig struct {
	Addr string
	// WriteRateLimit is requests per second per client on the write routes. Zero disables it.
	WriteRateLimit float64
	AllowedOrigins []string
}

type Server struct {
	e    *echo.Echo
	addr string

	bookings BookingService
}

func NewServer(
	e *echo.Echo,
	bookingService BookingService,
	routerIsRunning func() bool,
	pingStore func(ctx context.Context) error,
	config ServerConfig,
) *Server {
	srv := &Server{
		e:        e,
		addr:     config.Addr,
		bookings: bookingService,
	}
	if srv.addr == "" {
		srv.addr = ":8080"
	}

	e.Use(correlationIDMiddleware)
	e.Use(loggingMiddleware)
	if len(config.AllowedOrigins) > 0 {
		e.Use(echo.WrapMiddleware(cors.New(cors.Options{
			AllowedOrigins: config.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", "Idempotency-Key", CorrelationIDHeader},
		}).Handler))
	}

	var writes []echo.MiddlewareFunc
	if config.WriteRateLimit > 0 {
		writes = append(writes, middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStore(rate.Limit(config.WriteRateLimit)),
		))
	}

	e.POST("/bookings", srv.CreateBookingHandler, writes...)
	e.GET("/bookings", srv.ListBookingsHandler)
	e.GET("/bookings/:id", srv.GetBookingHandler)
	e.PATCH("/bookings/:id", srv.AmendBookingHandler, writes...)
	e.DELETE("/bookings/:id", srv.CancelBookingHandler, writes...)

	e.GET("/inventory", srv.AvailabilityHandler)

	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		if err := pingStore(c.Request().Context()); err != nil {
			log.FromContext(c.Request().Context()).WithError(err).Error("Store health check failed")
			return c.String(http.StatusServiceUnavailable, "store is not available")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return srv
}

func correlationIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()

		correlationID := req.Header.Get(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = "gen_" + uuid.NewString()
		}

		ctx = log.ContextWithCorrelationID(ctx, correlationID)
		ctx = log.ToContext(ctx, logrus.WithFields(logrus.Fields{"correlation_id": correlationID}))

		c.SetRequest(req.WithContext(ctx))
		c.Response().Header().Set(CorrelationIDHeader, correlationID)

		return next(c)
	}
}

func loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log.FromContext(c.Request().Context()).
			WithField("method", c.Request().Method).
			WithField("path", c.Request().URL.Path).
			Info("Handling a request")

		err := next(c)

		if err != nil {
			log.FromContext(c.Request().Context()).
				WithField("error", err).
				Error("Request handling error")
		}

		return err
	}
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
