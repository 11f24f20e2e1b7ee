package notify

import (
	"net/http"
	"strconv"

	httperr "github.com/plateful-app/plateful/internal/core/errors"

	"github.com/gin-gonic/gin"
)

const identityHeader = "X-User-ID"

// Handler exposes the pending-update cache over HTTP.
type Handler struct {
	cache *PendingCache
}

func NewHandler(cache *PendingCache) *Handler {
	if cache == nil {
		panic("notify: cache must not be nil")
	}
	return &Handler{cache: cache}
}

// RegisterRoutes registers the pending-update routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/users/:user_id/pending-updates", h.PendingHandler)
	r.POST("/v1/users/:user_id/pending-updates/ack", h.AcknowledgeHandler)
}

// PendingHandler handles GET /v1/users/:user_id/pending-updates.
func (h *Handler) PendingHandler(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	updates := h.cache.Pending(userID)
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"updates": updates,
	})
}

// AcknowledgeHandler handles POST /v1/users/:user_id/pending-updates/ack.
func (h *Handler) AcknowledgeHandler(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	h.cache.Acknowledge(userID)
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

// authorize checks the identity header matches the path user. A user may only
// read or clear their own pending updates.
func (h *Handler) authorize(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "user_id must be a positive integer",
		})
		return 0, false
	}

	caller, err := strconv.ParseInt(c.GetHeader(identityHeader), 10, 64)
	if err != nil || caller <= 0 {
		c.JSON(http.StatusUnauthorized, httperr.ErrorResponse{
			ErrorType: httperr.HttpMissingIdentityError,
			Message:   "Missing or invalid " + identityHeader + " header",
		})
		return 0, false
	}

	if caller != userID {
		c.JSON(http.StatusForbidden, httperr.ErrorResponse{
			ErrorType: httperr.HttpForbiddenError,
			Message:   "Pending updates belong to another user",
		})
		return 0, false
	}

	return userID, true
}
