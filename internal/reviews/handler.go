package reviews

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	httperr "github.com/plateful-app/plateful/internal/core/errors"
	"github.com/plateful-app/plateful/internal/core/storage"

	v1 "github.com/plateful-app/plateful/internal/api/v1"
	"github.com/gin-gonic/gin"
)

const (
	// identityHeader carries the authenticated user id. Authentication itself
	// happens upstream at the gateway; this service trusts the header.
	identityHeader = "X-User-ID"

	msgMissingIdentity  = "Missing or invalid " + identityHeader + " header"
	msgInvalidJSON      = "Invalid JSON body"
	msgReviewNotFound   = "Review not found"
	msgNotOwner         = "Review belongs to another user"
	msgStoreUnavailable = "Review store unavailable"

	defaultPageSize = 20
	maxPageSize     = 100
)

// reviewError carries the structured HTTP error shape from a helper back to
// the handler. Helpers return this instead of writing to gin.Context directly.
type reviewError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *reviewError) Error() string {
	return e.message
}

type reviewContentRequest struct {
	Rating  *int     `json:"rating"`
	Comment *string  `json:"comment"`
	Images  []string `json:"images"`
}

// CreateHandler handles POST /v1/restaurants/:restaurant_id/reviews.
func (s *Service) CreateHandler(c *gin.Context) {
	userID, herr := identity(c)
	if herr != nil {
		writeError(c, herr)
		return
	}

	restaurantID, herr := pathInt64(c, "restaurant_id")
	if herr != nil {
		writeError(c, herr)
		return
	}

	var req reviewContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &reviewError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		})
		return
	}

	stars := 0
	if req.Rating != nil {
		stars = *req.Rating
	}
	comment := ""
	if req.Comment != nil {
		comment = *req.Comment
	}

	review, err := s.Create(c.Request.Context(), userID, restaurantID, stars, comment, req.Images)
	if err != nil {
		writeError(c, mapServiceError(err))
		return
	}

	slog.Info("Review created",
		"review_id", review.ID,
		"restaurant_id", review.RestaurantID,
		"user_id", review.UserID,
		"rating", review.Rating)

	c.JSON(http.StatusCreated, review)
}

// ListHandler handles GET /v1/restaurants/:restaurant_id/reviews.
func (s *Service) ListHandler(c *gin.Context) {
	restaurantID, herr := pathInt64(c, "restaurant_id")
	if herr != nil {
		writeError(c, herr)
		return
	}

	limit, offset := pagination(c)

	reviews, err := s.List(c.Request.Context(), restaurantID, limit, offset)
	if err != nil {
		writeError(c, mapServiceError(err))
		return
	}
	if reviews == nil {
		reviews = []*v1.Review{}
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"limit":   limit,
		"offset":  offset,
	})
}

// UpdateHandler handles PATCH /v1/reviews/:id.
func (s *Service) UpdateHandler(c *gin.Context) {
	userID, herr := identity(c)
	if herr != nil {
		writeError(c, herr)
		return
	}

	var req reviewContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &reviewError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		})
		return
	}

	review, err := s.Update(c.Request.Context(), c.Param("id"), userID, ContentPatch{
		Rating:  req.Rating,
		Comment: req.Comment,
		Images:  req.Images,
	})
	if err != nil {
		writeError(c, mapServiceError(err))
		return
	}

	c.JSON(http.StatusOK, review)
}

// DeleteHandler handles DELETE /v1/reviews/:id.
func (s *Service) DeleteHandler(c *gin.Context) {
	userID, herr := identity(c)
	if herr != nil {
		writeError(c, herr)
		return
	}

	if err := s.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeError(c, mapServiceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ToggleLikeHandler handles POST /v1/reviews/:id/like.
func (s *Service) ToggleLikeHandler(c *gin.Context) {
	userID, herr := identity(c)
	if herr != nil {
		writeError(c, herr)
		return
	}

	review, err := s.ToggleLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, mapServiceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review_id": review.ID,
		"likes":     review.Likes,
		"liked":     review.LikedByUser(userID),
	})
}

// identity extracts the caller's user id from the identity header.
func identity(c *gin.Context) (int64, *reviewError) {
	raw := c.GetHeader(identityHeader)
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, &reviewError{
			statusCode: http.StatusUnauthorized,
			errorType:  httperr.HttpMissingIdentityError,
			message:    msgMissingIdentity,
		}
	}
	return userID, nil
}

func pathInt64(c *gin.Context, name string) (int64, *reviewError) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || value <= 0 {
		return 0, &reviewError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    name + " must be a positive integer",
		}
	}
	return value, nil
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// mapServiceError converts service-layer failures into HTTP error shapes.
func mapServiceError(err error) *reviewError {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &reviewError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFoundError,
			message:    msgReviewNotFound,
		}
	case errors.Is(err, ErrNotOwner):
		return &reviewError{
			statusCode: http.StatusForbidden,
			errorType:  httperr.HttpForbiddenError,
			message:    msgNotOwner,
		}
	case errors.Is(err, ErrInvalidReview):
		return &reviewError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    err.Error(),
		}
	default:
		slog.Error("Review store operation failed", "error", err)
		return &reviewError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpStoreUnavailable,
			message:    msgStoreUnavailable,
		}
	}
}

// writeError serializes a reviewError as the JSON HTTP response.
func writeError(c *gin.Context, err *reviewError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
