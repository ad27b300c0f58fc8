package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
	"github.com/joseph-ayodele/swiftscan/internal/export"
	"github.com/joseph-ayodele/swiftscan/internal/extract"
	"github.com/joseph-ayodele/swiftscan/internal/pipeline"
	"github.com/joseph-ayodele/swiftscan/internal/repository"
	"github.com/joseph-ayodele/swiftscan/internal/session"
)

// ProfileResolver looks up the Google account behind an access token.
type ProfileResolver interface {
	UserInfo(ctx context.Context, token string) (entity.GoogleUser, error)
}

// Deps are the services the HTTP API is built on.
type Deps struct {
	Processor *pipeline.Processor
	Sessions  *session.Store
	Scans     repository.ScanRepository
	Settings  repository.SettingsRepository
	Export    *export.Service
	Fields    extract.FieldExtractor
	Google    ProfileResolver
}

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type API struct {
	deps   Deps
	logger *slog.Logger
}

// NewRouter wires the HTTP API.
func NewRouter(deps Deps, cfg RouterConfig, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	api := &API{deps: deps, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestContext(logger, cfg.RequestTimeout))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.POST("/parse", api.parse)

	sessions := v1.Group("/sessions")
	{
		sessions.POST("", api.createSession)
		sessions.GET("/:id", api.getSession)
		sessions.POST("/:id/view", api.navigate)
		sessions.POST("/:id/capture", api.capture)
		sessions.POST("/:id/regenerate", api.regenerate)
		sessions.POST("/:id/send", api.send)
	}

	history := v1.Group("/history")
	{
		history.GET("", api.listHistory)
		history.GET("/export.xlsx", api.exportHistory)
		history.GET("/:id", api.getHistory)
		history.DELETE("/:id", api.deleteHistory)
	}

	settings := v1.Group("/settings")
	{
		settings.GET("", api.getSettings)
		settings.PUT("", api.putSettings)
		settings.POST("/google", api.signIn)
		settings.DELETE("/google", api.signOut)
	}
	return r
}

// requestContext tags each request with an id and a scoped logger and bounds
// it by the configured timeout.
func requestContext(logger *slog.Logger, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Header("X-Request-ID", reqID)

		reqLog := logger.With("req_id", reqID)
		ctx := common.WithLogger(common.WithRequestID(c.Request.Context(), reqID), reqLog)
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		reqLog.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// writeError answers with {"error": msg} and the status the error chain maps to.
func (a *API) writeError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	log := common.LoggerFromContext(c.Request.Context(), a.logger)
	if status >= http.StatusInternalServerError {
		log.Error("http.error", "status", status, "error", err)
	} else {
		log.Info("http.rejected", "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": common.PublicMessage(err)})
}

func (a *API) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		a.writeError(c, common.InvalidInputErrorf("invalid request body: %v", err))
		return false
	}
	return true
}

func (a *API) idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		a.writeError(c, common.InvalidInputErrorf("id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
