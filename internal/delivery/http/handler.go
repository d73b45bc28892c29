package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pokefinder/backend/internal/domain"
	"github.com/pokefinder/backend/internal/infrastructure/logger"
	"github.com/pokefinder/backend/internal/infrastructure/session"
	"github.com/pokefinder/backend/internal/usecase"
	"go.uber.org/zap"
)

// SearchRequest is the body of a session search
type SearchRequest struct {
	Name string `json:"name"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver usecase.Resolver
	sessions *session.Registry[*Session]
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver usecase.Resolver, sessions *session.Registry[*Session], allowedOrigins []string, log *zap.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin
				return origin == "" || isAllowedOrigin(origin, allowedOrigins)
			},
		},
		logger: logger.OrNop(log).Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pokefinder-backend",
		"version": "1.0.0",
	})
}

// CreateSession opens a new lookup session
func (h *Handler) CreateSession(c *gin.Context) {
	id := h.sessions.Create(NewSession(h.resolver, h.logger))
	h.logger.Debug("Session created", zap.String("session", id))
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

// DeleteSession closes a session and cancels its in-flight lookup
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Search issues a query on a session.
// With ?wait=true the call blocks until the query is decided and returns the outcome.
func (h *Handler) Search(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	seq, err := sess.Search(req.Name)
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrAggregatorClosed):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrSessionNotFound.Error()})
		return
	case err != nil:
		h.logger.Error("Search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); !wait {
		c.JSON(http.StatusAccepted, gin.H{"seq": seq})
		return
	}

	view, err := sess.AwaitView(c.Request.Context(), seq)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "lookup did not finish in time"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetOutcome returns the session's current outcome
func (h *Handler) GetOutcome(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// ToggleSprite flips between the default and shiny sprite of the current Pokémon
func (h *Handler) ToggleSprite(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	view, err := sess.ToggleShiny()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// LookupPokemon resolves a name without a session
func (h *Handler) LookupPokemon(c *gin.Context) {
	query, err := domain.NewLookupQuery(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := h.resolver.Resolve(c.Request.Context(), query)
	view := NewOutcomeView(domain.SnapshotFor(0, query.Name(), outcome, time.Now()), false)

	switch outcome.Kind {
	case domain.OutcomeFound:
		c.JSON(http.StatusOK, view)
	case domain.OutcomeNotFound:
		c.JSON(http.StatusNotFound, view)
	default:
		c.JSON(http.StatusServiceUnavailable, view)
	}
}

// session looks up the :id session, answering 404 when it is missing
func (h *Handler) session(c *gin.Context) (*Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrSessionNotFound.Error()})
		return nil, false
	}
	return sess, true
}
