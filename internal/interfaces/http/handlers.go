package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/tripdesk/tripdesk/internal/application/service"
	"github.com/tripdesk/tripdesk/internal/domain/apperr"
	"github.com/tripdesk/tripdesk/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	tripService      service.TripService
	decisionService  service.DecisionService
	analyticsService service.AnalyticsService
	exporter         *export.ExcelExporter
	logger           Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	tripService service.TripService,
	decisionService service.DecisionService,
	analyticsService service.AnalyticsService,
	exporter *export.ExcelExporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		tripService:      tripService,
		decisionService:  decisionService,
		analyticsService: analyticsService,
		exporter:         exporter,
		logger:           logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Hint    string      `json:"hint,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateTrip handles POST /api/v1/trips
func (h *Handlers) CreateTrip(c *gin.Context) {
	var req service.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), currentActor(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: trip})
}

// AddTripItem handles POST /api/v1/trips/:id/items
func (h *Handlers) AddTripItem(c *gin.Context) {
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	item, err := h.tripService.AddTripItem(c.Request.Context(), currentActor(c), tripID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: item})
}

// SubmitTrip handles POST /api/v1/trips/:id/submit
func (h *Handlers) SubmitTrip(c *gin.Context) {
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	result, err := h.tripService.SubmitTripForReview(c.Request.Context(), currentActor(c), tripID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// GetMyTrips handles GET /api/v1/trips
func (h *Handlers) GetMyTrips(c *gin.Context) {
	trips, err := h.tripService.GetMyTrips(c.Request.Context(), currentActor(c), c.Query("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: trips})
}

// ListPendingTrips handles GET /api/v1/trips/pending
func (h *Handlers) ListPendingTrips(c *gin.Context) {
	onlyBlockers := false
	if raw := c.Query("only_blockers"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.badRequest(c, "only_blockers must be a boolean")
			return
		}
		onlyBlockers = parsed
	}

	queue, err := h.tripService.ListPendingTrips(c.Request.Context(), currentActor(c), c.Query("department"), onlyBlockers)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: queue})
}

// GetTripReviewPacket handles GET /api/v1/trips/:id
func (h *Handlers) GetTripReviewPacket(c *gin.Context) {
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	packet, err := h.tripService.GetTripReviewPacket(c.Request.Context(), currentActor(c), tripID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: packet})
}

// DecideTrip handles POST /api/v1/trips/:id/decision
func (h *Handlers) DecideTrip(c *gin.Context) {
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	var req service.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	result, err := h.decisionService.DecideTrip(c.Request.Context(), currentActor(c), tripID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// GetViolationAnalytics handles GET /api/v1/analytics/violations
func (h *Handlers) GetViolationAnalytics(c *gin.Context) {
	rng := service.DateRange{From: c.Query("from"), To: c.Query("to")}

	result, err := h.analyticsService.GetViolationAnalytics(c.Request.Context(), currentActor(c), rng, c.DefaultQuery("group_by", service.GroupByCode))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		f, err := h.exporter.ViolationWorkbook(result)
		if err != nil {
			h.writeError(c, apperr.Internal(err, "render violation workbook"))
			return
		}
		defer f.Close()
		h.writeWorkbook(c, f, "violations.xlsx")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// GetSpendAnalytics handles GET /api/v1/analytics/spend
func (h *Handlers) GetSpendAnalytics(c *gin.Context) {
	rng := service.DateRange{From: c.Query("from"), To: c.Query("to")}

	result, err := h.analyticsService.GetSpendAnalytics(c.Request.Context(), currentActor(c), rng, c.DefaultQuery("group_by", service.GroupByDepartment))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		f, err := h.exporter.SpendWorkbook(result)
		if err != nil {
			h.writeError(c, apperr.Internal(err, "render spend workbook"))
			return
		}
		defer f.Close()
		h.writeWorkbook(c, f, "spend.xlsx")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// tripID parses the :id path parameter
func (h *Handlers) tripID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid trip ID")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
		Code:    string(apperr.CodeValidation),
	})
}

// writeError maps application error codes onto HTTP statuses.
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	resp := Response{Success: false, Error: "internal error"}

	if appErr := apperr.As(err); appErr != nil {
		resp.Code = string(appErr.Code)
		resp.Hint = appErr.Hint
		switch appErr.Code {
		case apperr.CodeValidation:
			status = http.StatusBadRequest
			resp.Error = appErr.Message
		case apperr.CodeForbidden:
			status = http.StatusForbidden
			resp.Error = appErr.Message
		case apperr.CodeNotFound:
			status = http.StatusNotFound
			resp.Error = appErr.Message
		case apperr.CodeInvalidState:
			status = http.StatusConflict
			resp.Error = appErr.Message
		default:
			// Internal causes are logged, never echoed to the caller.
			h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		}
	} else {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		resp.Code = string(apperr.CodeInternal)
	}

	c.JSON(status, resp)
}

// writeWorkbook streams an xlsx workbook as a file download.
func (h *Handlers) writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream workbook", "error", err, "filename", filename)
	}
}
