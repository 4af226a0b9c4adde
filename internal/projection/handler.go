package projection

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	httperr "github.com/salestrack-lab/salestrack/internal/core/errors"
	"github.com/salestrack-lab/salestrack/internal/core/storage"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/analytics/daily", s.HandleDaily)
	r.GET("/v1/analytics/weekly", s.HandleWeekly)
	r.GET("/v1/analytics/monthly", s.HandleMonthly)
	r.GET("/v1/analytics/yearly", s.HandleYearly)
	r.GET("/v1/analytics/data-range", s.HandleDataRange)

	r.GET("/v1/items", s.HandleListItems)
	r.GET("/v1/items/:item_id/analytics", s.HandleItemAnalytics)
}

// HandleDaily handles GET /v1/analytics/daily?days_ago=N&lookback_days=D
func (s *Service) HandleDaily(c *gin.Context) {
	var query struct {
		DaysAgo      int `form:"days_ago" binding:"min=0"`
		LookbackDays int `form:"lookback_days" binding:"min=0"`
	}
	if !bindQuery(c, &query) {
		return
	}
	s.serveAnalytics(c, Query{View: ViewDaily, Offset: query.DaysAgo, LookbackDays: query.LookbackDays})
}

// HandleWeekly handles GET /v1/analytics/weekly?weeks_ago=N
func (s *Service) HandleWeekly(c *gin.Context) {
	var query struct {
		WeeksAgo     int `form:"weeks_ago" binding:"min=0"`
		LookbackDays int `form:"lookback_days" binding:"min=0"`
	}
	if !bindQuery(c, &query) {
		return
	}
	s.serveAnalytics(c, Query{View: ViewWeekly, Offset: query.WeeksAgo, LookbackDays: query.LookbackDays})
}

// HandleMonthly handles GET /v1/analytics/monthly?months_ago=N
func (s *Service) HandleMonthly(c *gin.Context) {
	var query struct {
		MonthsAgo    int `form:"months_ago" binding:"min=0"`
		LookbackDays int `form:"lookback_days" binding:"min=0"`
	}
	if !bindQuery(c, &query) {
		return
	}
	s.serveAnalytics(c, Query{View: ViewMonthly, Offset: query.MonthsAgo, LookbackDays: query.LookbackDays})
}

// HandleYearly handles GET /v1/analytics/yearly?days=D
func (s *Service) HandleYearly(c *gin.Context) {
	var query struct {
		Days int `form:"days" binding:"min=0"`
	}
	if !bindQuery(c, &query) {
		return
	}
	s.serveAnalytics(c, Query{View: ViewYearly, LookbackDays: query.Days})
}

// HandleDataRange handles GET /v1/analytics/data-range?type=oldest|newest
func (s *Service) HandleDataRange(c *gin.Context) {
	var query struct {
		Type string `form:"type"`
	}
	if !bindQuery(c, &query) {
		return
	}
	if query.Type == "" {
		query.Type = "oldest"
	}

	resp, err := s.DataRange(c.Request.Context(), query.Type)
	if err != nil {
		writeError(c, err, "Failed to read data range")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleListItems handles GET /v1/items
func (s *Service) HandleListItems(c *gin.Context) {
	items, err := s.Items(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to list items")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// HandleItemAnalytics handles GET /v1/items/:item_id/analytics?view=daily&offset=N
func (s *Service) HandleItemAnalytics(c *gin.Context) {
	var uri struct {
		ItemID string `uri:"item_id" binding:"required"`
	}
	var query struct {
		View         string `form:"view"`
		Offset       int    `form:"offset" binding:"min=0"`
		LookbackDays int    `form:"lookback_days" binding:"min=0"`
	}

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}
	if !bindQuery(c, &query) {
		return
	}
	if query.View == "" {
		query.View = string(ViewDaily)
	}

	report, err := s.ItemAnalytics(c.Request.Context(), uri.ItemID, Query{
		View:         View(query.View),
		Offset:       query.Offset,
		LookbackDays: query.LookbackDays,
	})
	if err != nil {
		writeError(c, err, "Failed to build item analytics")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Service) serveAnalytics(c *gin.Context, q Query) {
	report, err := s.Analytics(c.Request.Context(), q)
	if err != nil {
		writeError(c, err, "Failed to build analytics")
		return
	}
	c.JSON(http.StatusOK, report)
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return false
	}
	return true
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid analytics query",
			Details:   err.Error(),
		})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.New(httperr.HttpNotFoundError, "Item not found"))
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   message,
			Details:   err.Error(),
		})
	}
}
