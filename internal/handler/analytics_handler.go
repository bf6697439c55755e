package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/darulhuda/institute-api/internal/middleware"
	"github.com/darulhuda/institute-api/internal/service"
	appErrors "github.com/darulhuda/institute-api/pkg/errors"
	"github.com/darulhuda/institute-api/pkg/response"
)

// AnalyticsHandler exposes the institute analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	exporter  *service.ExportService
	validator *validator.Validate
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, exporter *service.ExportService, validate *validator.Validate) *AnalyticsHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AnalyticsHandler{analytics: analytics, exporter: exporter, validator: validate}
}

// analyticsQuery captures the shared query parameters of the analytics routes.
type analyticsQuery struct {
	TimeRange string `form:"timeRange"`
	CourseID  string `form:"courseId" validate:"omitempty,uuid4"`
	Format    string `form:"format"`
}

func (h *AnalyticsHandler) parseQuery(c *gin.Context) (analyticsQuery, error) {
	query := analyticsQuery{
		TimeRange: c.Query("timeRange"),
		CourseID:  c.Query("courseId"),
		Format:    c.Query("format"),
	}
	if err := h.validator.Struct(query); err != nil {
		return query, appErrors.Clone(appErrors.ErrValidation, "invalid courseId parameter")
	}
	return query, nil
}

// Dashboard returns the comprehensive multi-section analytics report.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	query, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.analytics.ComprehensiveReport(c.Request.Context(), query.TimeRange, query.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetProcessingTime(c, time.Since(start))
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// Export streams the comprehensive report as a JSON, CSV or PDF attachment.
func (h *AnalyticsHandler) Export(c *gin.Context) {
	if h.analytics == nil || h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	query, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, cacheHit, err := h.analytics.ComprehensiveReport(c.Request.Context(), query.TimeRange, query.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.Render(report, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}

// AttendanceTrends returns only the per-day attendance series.
func (h *AnalyticsHandler) AttendanceTrends(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	query, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	trends, err := h.analytics.AttendanceTrends(c.Request.Context(), query.TimeRange)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, false)
	middleware.SetProcessingTime(c, time.Since(start))
	response.JSON(c, http.StatusOK, trends, middleware.ExtractMeta(c))
}

// StudentPerformance returns only the ranked student section.
func (h *AnalyticsHandler) StudentPerformance(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	query, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	students, err := h.analytics.StudentPerformance(c.Request.Context(), query.TimeRange)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, false)
	middleware.SetProcessingTime(c, time.Since(start))
	response.JSON(c, http.StatusOK, students, middleware.ExtractMeta(c))
}
