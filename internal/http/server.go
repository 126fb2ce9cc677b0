// Package http provides the callscribe HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/callscribe/internal/calls"
	"github.com/fyrsmithlabs/callscribe/internal/elevenlabs"
	"github.com/fyrsmithlabs/callscribe/internal/extraction"
	"github.com/fyrsmithlabs/callscribe/internal/logging"
	"github.com/fyrsmithlabs/callscribe/internal/prompt"
	"github.com/fyrsmithlabs/callscribe/internal/transcript"
)

// CallService is the call lifecycle the API exposes.
type CallService interface {
	ProviderConfigured() bool
	PhoneNumberConfigured() bool
	Templates() *prompt.Catalog
	MakeCall(ctx context.Context, req calls.CallRequest) (*calls.Call, error)
	Status(ctx context.Context, id string) (*calls.StatusReport, error)
	ProcessConversation(ctx context.Context, id string) (*calls.Result, error)
	Results(ctx context.Context, id string) (*calls.Result, error)
	ActiveCalls(ctx context.Context) (*calls.Snapshot, error)
	DebugConversations(ctx context.Context) ([]calls.ConversationSummary, error)
	TestAgentCreation(ctx context.Context) (*elevenlabs.Agent, error)
}

// Extractor runs the answer extraction engine directly.
type Extractor interface {
	Extract(ctx context.Context, raw transcript.Raw, questions []string) extraction.ResultMap
}

// FollowUpStarter schedules a follow-up for a new call.
type FollowUpStarter interface {
	Start(ctx context.Context, batchCallID string) (string, error)
}

// Server provides HTTP endpoints for callscribe.
type Server struct {
	echo      *echo.Echo
	calls     CallService
	extractor Extractor
	followUp  FollowUpStarter
	logger    *zap.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
	Version     string
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithFollowUp schedules a follow-up workflow after every successful call.
func WithFollowUp(starter FollowUpStarter) Option {
	return func(s *Server) { s.followUp = starter }
}

// NewServer creates a new HTTP server.
func NewServer(svc CallService, extractor Extractor, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("call service cannot be nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 5001,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins(cfg.CORSOrigins),
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), reqID)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			if ce := logger.Check(logging.StatusLevel(status), "http request"); ce != nil {
				ce.Write(logging.Fields(c.Request().Context(),
					zap.String("method", req.Method),
					zap.String("uri", req.RequestURI),
					zap.Int("status", status),
					zap.Duration("duration", time.Since(start)),
				)...)
			}
			return nil
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:      e,
		calls:     svc,
		extractor: extractor,
		logger:    logger,
		config:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/test", s.handleTest)
	api.POST("/test-agent-creation", s.handleTestAgentCreation)
	api.GET("/agent-templates", s.handleTemplates)
	api.POST("/make-call", s.handleMakeCall)
	api.GET("/call-status/:id", s.handleCallStatus)
	api.POST("/process-conversation/:id", s.handleProcessConversation)
	api.GET("/debug-conversations", s.handleDebugConversations)
	api.GET("/call-results/:id", s.handleCallResults)
	api.GET("/active-calls", s.handleActiveCalls)
	api.POST("/extract", s.handleExtract)
}

// Handler exposes the router for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// errorHandler renders unrouted paths as {"error":"Not found"} and every
// other error as a failed API response.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		} else {
			logger.Error("unhandled handler error", zap.Error(err))
		}

		var body any
		switch code {
		case http.StatusNotFound:
			body = map[string]string{"error": "Not found"}
		case http.StatusMethodNotAllowed:
			body = map[string]string{"error": "Method not allowed"}
		default:
			body = failure{Message: message}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, body)
		}
		if writeErr != nil {
			logger.Warn("failed to write error response", zap.Error(writeErr))
		}
	}
}
