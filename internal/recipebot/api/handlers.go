package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/favorites"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/router"
	"github.com/blueplan/recipebot/internal/recipebot/utils"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports the state of a backing dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (map[string]interface{}, error)
}

// Handler serves the chat and favorites endpoints.
type Handler struct {
	router  *router.Router
	store   favorites.Store
	health  HealthChecker
	counter utils.AccessCounter
	logger  *logx.Logger
	version string
	started time.Time
}

// Response is the envelope of every JSON answer.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MessageRequest is one inbound chat message.
type MessageRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	Text      string `json:"text"`
	IsCommand bool   `json:"is_command"`
}

// MessageResponse carries the replies in sending order.
type MessageResponse struct {
	Replies []string `json:"replies"`
}

// FavoriteRequest names a recipe to collect.
type FavoriteRequest struct {
	Name string `json:"name"`
}

// FavoritesResponse lists a user's collected recipes.
type FavoritesResponse struct {
	UserID    string   `json:"user_id"`
	Favorites []string `json:"favorites"`
}

func (h *Handler) SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func (h *Handler) ErrorResponse(c *gin.Context, code int, message string, err error) {
	response := Response{
		Code:    code,
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}
	c.AbortWithStatusJSON(code, response)
}

// authorizeUser rejects requests whose token belongs to another user. It is a
// no-op when authentication is disabled.
func (h *Handler) authorizeUser(c *gin.Context, userID string) bool {
	authUser := c.GetString(authUserKey)
	if authUser == "" || authUser == userID {
		return true
	}
	h.logger.Warn(c.Request.Context(), "token user mismatch",
		logx.KV("token_user", authUser),
		logx.KV("target_user", userID))
	h.ErrorResponse(c, http.StatusForbidden, "token does not belong to this user", nil)
	return false
}

// storeError maps favorites errors to HTTP statuses.
func (h *Handler) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, favorites.ErrInvalidName):
		h.ErrorResponse(c, http.StatusBadRequest, "invalid recipe name", err)
	case errors.Is(err, favorites.ErrStoreUnavailable):
		h.logger.Error(c.Request.Context(), "favorites store unavailable", logx.KV("error", err))
		h.ErrorResponse(c, http.StatusServiceUnavailable, "favorites store unavailable", nil)
	default:
		h.logger.Error(c.Request.Context(), "favorites request failed", logx.KV("error", err))
		h.ErrorResponse(c, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *Handler) HandleHealth(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"version":   h.version,
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now(),
	}
	if h.health != nil {
		details, err := h.health.HealthCheck(c.Request.Context())
		if err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["redis"] = details
		if status, _ := details["overall_status"].(string); status != "" && status != "healthy" {
			body["status"] = status
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) HandlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": time.Now(),
	})
}

func (h *Handler) HandleMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		h.ErrorResponse(c, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	if !h.authorizeUser(c, req.UserID) {
		return
	}

	replies := h.router.Handle(c.Request.Context(), router.Message{
		UserID:    req.UserID,
		Text:      req.Text,
		IsCommand: req.IsCommand,
	})
	h.SuccessResponse(c, MessageResponse{Replies: replies})
}

func (h *Handler) HandleListFavorites(c *gin.Context) {
	userID := c.Param("user_id")
	if !h.authorizeUser(c, userID) {
		return
	}
	names, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		h.storeError(c, err)
		return
	}
	h.SuccessResponse(c, FavoritesResponse{UserID: userID, Favorites: names})
}

func (h *Handler) HandleAddFavorite(c *gin.Context) {
	userID := c.Param("user_id")
	if !h.authorizeUser(c, userID) {
		return
	}
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.store.Add(c.Request.Context(), userID, req.Name); err != nil {
		h.storeError(c, err)
		return
	}
	h.logger.Info(c.Request.Context(), "favorite added", logx.KV("user", userID))
	h.SuccessResponse(c, gin.H{"name": strings.TrimSpace(req.Name)})
}

func (h *Handler) HandleRemoveFavorite(c *gin.Context) {
	userID := c.Param("user_id")
	if !h.authorizeUser(c, userID) {
		return
	}
	name := removeFavoriteName(c)
	if err := h.store.Remove(c.Request.Context(), userID, name); err != nil {
		h.storeError(c, err)
		return
	}
	h.logger.Info(c.Request.Context(), "favorite removed", logx.KV("user", userID))
	h.SuccessResponse(c, gin.H{"name": strings.TrimSpace(name)})
}

// removeFavoriteName reads the recipe name from the path, the "name" query
// parameter or a JSON body. Names containing "/" need one of the latter two.
func removeFavoriteName(c *gin.Context) string {
	if name := c.Param("name"); name != "" {
		return name
	}
	if name := c.Query("name"); name != "" {
		return name
	}
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return req.Name
}

// HandleStats reports message counts, including the caller's own when
// user_id is given.
func (h *Handler) HandleStats(c *gin.Context) {
	if h.counter == nil {
		h.ErrorResponse(c, http.StatusNotFound, "access statistics are disabled", nil)
		return
	}
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		userID = c.GetString(authUserKey)
	}
	if userID != "" && !h.authorizeUser(c, userID) {
		return
	}
	stats, err := h.counter.Stats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "read access statistics failed", logx.KV("error", err))
		h.ErrorResponse(c, http.StatusServiceUnavailable, "access statistics unavailable", nil)
		return
	}
	h.SuccessResponse(c, stats)
}
