package stats

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	httperr "github.com/plateful-app/plateful/internal/core/errors"
	"github.com/plateful-app/plateful/internal/ratings"

	"github.com/gin-gonic/gin"
)

// Service exposes read-side rating endpoints: a live aggregate snapshot
// computed straight from the review documents, and the administrative
// reconciliation trigger.
type Service struct {
	engine *ratings.Engine
	job    *ratings.Job
}

func NewService(engine *ratings.Engine, job *ratings.Job) *Service {
	if engine == nil {
		panic("stats: engine must not be nil")
	}
	if job == nil {
		panic("stats: job must not be nil")
	}
	return &Service{engine: engine, job: job}
}

// RegisterRoutes registers the rating read and admin routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/restaurants/:restaurant_id/rating", s.RatingHandler)
	r.POST("/v1/admin/reconcile", s.ReconcileHandler)
}

// RatingHandler handles GET /v1/restaurants/:restaurant_id/rating.
//
// The aggregate is computed live from the document store rather than read
// from the denormalized restaurant row, so the response never lags a
// just-committed mutation.
func (s *Service) RatingHandler(c *gin.Context) {
	restaurantID, err := strconv.ParseInt(c.Param("restaurant_id"), 10, 64)
	if err != nil || restaurantID <= 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "restaurant_id must be a positive integer",
		})
		return
	}

	agg, cerr := s.engine.ComputeOne(c.Request.Context(), restaurantID)
	if cerr != nil {
		slog.Error("Live rating computation failed", "restaurant_id", restaurantID, "error", cerr)
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpStoreUnavailable,
			Message:   "Review store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant_id":  restaurantID,
		"average_rating": agg.AverageRating,
		"review_count":   agg.ReviewCount,
	})
}

// ReconcileHandler handles POST /v1/admin/reconcile.
// Runs one full reconciliation pass synchronously and returns its report.
func (s *Service) ReconcileHandler(c *gin.Context) {
	report, err := s.job.Run(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		errType := httperr.HttpInternalError
		if errors.Is(err, ratings.ErrStoreUnavailable) {
			status = http.StatusServiceUnavailable
			errType = httperr.HttpStoreUnavailable
		}
		c.JSON(status, httperr.ErrorResponse{
			ErrorType: errType,
			Message:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
