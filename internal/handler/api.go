package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradeproof/internal/identity"
	"tradeproof/internal/models"
	"tradeproof/internal/repository"
	"tradeproof/internal/service"
)

const defaultPageLimit = 50

// Handler handles HTTP requests for the review API.
type Handler struct {
	review        *service.ReviewService
	queries       *service.MessageQueryService
	analytics     *service.AnalyticsService
	tags          repository.TagRepository
	identity      *identity.Client
	mediaDir      string
	thumbnailsDir string
	logger        *zap.Logger
}

// NewHandler creates a new API handler. identityClient may be nil when
// identity verification is disabled.
func NewHandler(
	review *service.ReviewService,
	queries *service.MessageQueryService,
	analytics *service.AnalyticsService,
	tags repository.TagRepository,
	identityClient *identity.Client,
	mediaDir, thumbnailsDir string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		review:        review,
		queries:       queries,
		analytics:     analytics,
		tags:          tags,
		identity:      identityClient,
		mediaDir:      mediaDir,
		thumbnailsDir: thumbnailsDir,
		logger:        logger,
	}
}

// RegisterRoutes registers all API routes. Mutating endpoints sit behind
// authRequired, which is a no-op pass-through when access control is off.
func (h *Handler) RegisterRoutes(r *gin.Engine, authRequired gin.HandlerFunc) {
	api := r.Group("/api/v1")
	{
		api.GET("/next", h.NextTrade)
		api.GET("/messages", h.Messages)
		api.GET("/stats", h.Stats)
		api.GET("/analytics/items", h.ItemAnalytics)
		api.GET("/tags/:key", h.GetTag)

		protected := api.Group("")
		protected.Use(authRequired)
		{
			protected.POST("/action", h.Action)
			protected.POST("/tags/:key", h.SaveTag)
			protected.POST("/identities/verify", h.VerifyIdentities)
		}
	}

	r.GET("/media/:name", h.serveAsset(h.mediaDir))
	r.GET("/thumbnails/:name", h.serveAsset(h.thumbnailsDir))

	r.GET("/health", h.HealthCheck)
}

// NextTrade returns the next pending candidate with its extractor suggestion.
func (h *Handler) NextTrade(c *gin.Context) {
	exclude := make(map[string]struct{})
	for _, key := range c.QueryArray("exclude") {
		exclude[key] = struct{}{}
	}

	next, err := h.review.NextTrade(c.Request.Context(), exclude)
	if err != nil {
		if errors.Is(err, service.ErrNoPending) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending trades"})
			return
		}
		h.logger.Error("Failed to find next trade", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to find next trade"})
		return
	}

	c.JSON(http.StatusOK, next)
}

// Messages serves the paginated read model, newest first.
func (h *Handler) Messages(c *gin.Context) {
	before := math.MaxFloat64
	if raw := c.Query("before"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be a unix timestamp"})
			return
		}
		before = parsed
	}

	limit := defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	var passed *bool
	switch c.Query("passed") {
	case "":
	case "true":
		v := true
		passed = &v
	case "false":
		v := false
		passed = &v
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "passed must be true or false"})
		return
	}

	views := h.queries.Query(before, limit, passed)
	c.JSON(http.StatusOK, gin.H{"messages": views, "count": len(views)})
}

// Action records a reviewer verdict.
func (h *Handler) Action(c *gin.Context) {
	var req models.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.review.Decide(req.Filename, req.Action, req.Metadata); err != nil {
		if errors.Is(err, repository.ErrInvalidKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
			return
		}
		h.logger.Error("Failed to record decision",
			zap.String("filename", req.Filename),
			zap.String("action", req.Action),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record decision"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats reports decision progress.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.review.Stats()
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ItemAnalytics serves the item discovery curves over accepted trades.
func (h *Handler) ItemAnalytics(c *gin.Context) {
	report, err := h.analytics.ItemDiscovery()
	if err != nil {
		h.logger.Error("Failed to build item analytics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build analytics"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// SaveTag stores an arbitrary JSON tag body for an attachment key.
func (h *Handler) SaveTag(c *gin.Context) {
	key := c.Param("key")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag body must be valid JSON"})
		return
	}

	if err := h.tags.SaveTag(key, body); err != nil {
		h.logger.Error("Failed to save tag", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save tag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetTag returns the stored tag body for an attachment key.
func (h *Handler) GetTag(c *gin.Context) {
	key := c.Param("key")

	body, err := h.tags.GetTag(key)
	if err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
			return
		}
		h.logger.Error("Failed to load tag", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tag"})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

// VerifyIdentities checks a username batch against the upstream directory.
func (h *Handler) VerifyIdentities(c *gin.Context) {
	if h.identity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "identity verification disabled"})
		return
	}

	var req models.VerifyIdentitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.identity.VerifyUsernames(c.Request.Context(), req.Usernames)
	if err != nil {
		h.logger.Error("Identity verification failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity verification failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// serveAsset serves a single file from dir by base name.
func (h *Handler) serveAsset(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := filepath.Base(c.Param("name"))
		path := filepath.Join(dir, name)

		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.File(path)
	}
}

// HealthCheck returns service health status.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
