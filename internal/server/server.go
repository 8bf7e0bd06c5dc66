package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"wedding-seating/internal/handler"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

type Server struct {
	log    zerolog.Logger
	engine *gin.Engine
}

// NewServer wires the HTTP routes
func NewServer(
	serviceName string,
	log zerolog.Logger,
	rsvp *handler.RSVPHandler,
	seats *handler.SeatingHandler,
) *Server {
	s := &Server{log: log.With().Str("component", "HTTP").Logger()}

	mux := gin.New()
	mux.Use(
		gin.Recovery(),
		requestID,
		otelgin.Middleware(serviceName),
		requestLogger(s.log),
	)

	mux.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := mux.Group("/api")
	{
		api.POST("/rsvp", rsvp.Submit)
		api.GET("/rsvp/:email", rsvp.Get)

		api.GET("/seat-info", seats.SeatInfo)
		api.POST("/select-seat", seats.SelectSeat)
		api.GET("/guest-seat", seats.GuestSeat)
		api.GET("/seating-chart", seats.SeatingChart)
		api.GET("/summary", seats.Summary)
	}

	mux.NoRoute(notFound)
	s.engine = mux
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"code": "PAGE_NOT_FOUND", "message": "Page not found"})
}

// requestID keeps a valid incoming X-Request-ID or assigns a new one
func requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = log.Error()
		case status >= http.StatusBadRequest:
			evt = log.Warn()
		default:
			evt = log.Info()
		}

		spanCtx := trace.SpanFromContext(c.Request.Context()).SpanContext()
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(requestIDKey)).
			Str("trace_id", spanCtx.TraceID().String()).
			Str("span_id", spanCtx.SpanID().String()).
			Msg("request")
	}
}
