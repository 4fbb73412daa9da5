package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/genegpt-qa-server/internal/domain"
	"github.com/genegpt-qa-server/internal/history"
	"github.com/genegpt-qa-server/internal/middleware"
	"github.com/genegpt-qa-server/internal/pipeline"
	"github.com/genegpt-qa-server/internal/session"
)

const sessionCookieName = "geneqa_session"

// Server is the HTTP front end of the question pipeline.
type Server struct {
	cfg      domain.Config
	pipeline *pipeline.Pipeline
	sessions *session.Store
	history  history.Store
	log      *logrus.Logger
	router   *gin.Engine
	server   *http.Server
}

// NewServer wires the router. history may be nil when auditing is off.
func NewServer(cfg domain.Config, p *pipeline.Pipeline, sessions *session.Store, hist history.Store, log *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		sessions: sessions,
		history:  hist,
		log:      log,
		router:   router,
	}
	s.setupRoutes()
	return s
}

// Router exposes the handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.log.WithField("addr", addr).Info("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/ask", s.handleAsk)
		v1.GET("/session", s.handleGetSession)
		v1.DELETE("/session", s.handleResetSession)
		v1.GET("/history", s.handleHistory)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

type askRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
}

// handleAsk runs one question through the pipeline. The session is taken
// from the request body, the session cookie, or minted fresh, in that
// order, and always echoed back as a cookie.
func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "question is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		if cookie, err := c.Cookie(sessionCookieName); err == nil {
			sessionID = cookie
		}
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	c.SetCookie(sessionCookieName, sessionID, int((24 * time.Hour).Seconds()), "/", "", false, true)

	outcome, err := s.pipeline.Ask(c.Request.Context(), req.Question, sessionID)
	if err != nil {
		if _, ok := err.(*domain.ValidationError); ok {
			s.writeError(c, http.StatusBadRequest, domain.ErrValidation, err.Error())
			return
		}
		s.log.WithError(err).Error("pipeline failed")
		s.writeError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to answer question")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"answer":        outcome.Answer,
		"clarification": outcome.Clarification,
	})
}

func (s *Server) handleGetSession(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		if cookie, err := c.Cookie(sessionCookieName); err == nil {
			sessionID = cookie
		}
	}
	if sessionID == "" {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "session_id is required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":     sessionID,
		"clinical_state": s.sessions.Get(c.Request.Context(), sessionID),
	})
}

func (s *Server) handleResetSession(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		if cookie, err := c.Cookie(sessionCookieName); err == nil {
			sessionID = cookie
		}
	}
	if sessionID == "" {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "session_id is required")
		return
	}

	if err := s.sessions.Delete(c.Request.Context(), sessionID); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to reset session")
		s.writeError(c, http.StatusInternalServerError, domain.ErrSessionError, "failed to reset session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "reset": true})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		s.writeError(c, http.StatusNotFound, domain.ErrInvalidInput, "history is not enabled")
		return
	}

	sessionID := c.Query("session_id")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit < 0 {
			s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "limit must be a non-negative integer")
			return
		}
	}

	var (
		entries []domain.HistoryEntry
		err     error
	)
	if sessionID != "" {
		entries, err = s.history.BySession(c.Request.Context(), sessionID, limit)
	} else {
		entries, err = s.history.Recent(c.Request.Context(), limit)
	}
	if err != nil {
		s.log.WithError(err).Error("failed to load history")
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "failed to load history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": domain.NewAPIError(code, message, "", c.GetString("correlation_id")),
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
