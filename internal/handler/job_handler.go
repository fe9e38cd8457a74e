// internal/handler/job_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"label-service/internal/model"
	"label-service/internal/repository"
	"label-service/internal/service"
	"label-service/internal/utils"
)

// JobHandler handles print submission and job inspection HTTP requests
type JobHandler struct {
	jobService *service.JobService
	logger     *utils.ServiceLogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService *service.JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     utils.NewServiceLogger(logger, "job-handler"),
	}
}

// RegisterRoutes registers print and job routes
func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	printers := router.Group("/printers/:id")
	{
		printers.POST("/print", h.PrintLabel)
		printers.POST("/raw", h.PrintRaw)
		printers.POST("/assets", h.UploadAsset)
		printers.DELETE("/assets/:name", h.DeleteAsset)
	}

	jobs := router.Group("/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.GET("/stats", h.GetJobStats)
		jobs.GET("/:job_id", h.GetJob)
	}
}

// PrintLabel builds and prints a label program
// @Summary Print a label
// @Description Build a label program from the supplied elements and deliver it
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Param request body service.LabelRequest true "Label program"
// @Success 202 {object} utils.APIResponse{data=model.PrintJob} "Label submitted"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 409 {object} utils.APIResponse "Printer busy"
// @Failure 502 {object} utils.APIResponse "Delivery failed"
// @Router /printers/{id}/print [post]
func (h *JobHandler) PrintLabel(c *gin.Context) {
	id, ok := printerIDParam(c)
	if !ok {
		return
	}

	var req service.LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.jobService.PrintLabel(c.Request.Context(), id, &req)
	if err != nil {
		h.respondDeliveryError(c, id, err, job)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Label submitted", job)
}

// PrintRaw delivers caller-supplied command text as-is
// @Summary Print raw commands
// @Description Deliver a caller-supplied command stream without modification
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Param request body RawRequest true "Raw command stream"
// @Success 202 {object} utils.APIResponse{data=model.PrintJob} "Job submitted"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 409 {object} utils.APIResponse "Printer busy"
// @Failure 502 {object} utils.APIResponse "Delivery failed"
// @Router /printers/{id}/raw [post]
func (h *JobHandler) PrintRaw(c *gin.Context) {
	id, ok := printerIDParam(c)
	if !ok {
		return
	}

	var req RawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.jobService.PrintRaw(c.Request.Context(), id, []byte(req.Data))
	if err != nil {
		h.respondDeliveryError(c, id, err, job)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Job submitted", job)
}

// UploadAsset stores an image or font on the printer
// @Summary Upload an asset
// @Description Store an image or font on the printer as a download object
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Param request body service.AssetRequest true "Asset upload request"
// @Success 202 {object} utils.APIResponse{data=model.PrintJob} "Asset submitted"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 409 {object} utils.APIResponse "Printer busy"
// @Failure 502 {object} utils.APIResponse "Delivery failed"
// @Router /printers/{id}/assets [post]
func (h *JobHandler) UploadAsset(c *gin.Context) {
	id, ok := printerIDParam(c)
	if !ok {
		return
	}

	var req service.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.jobService.UploadAsset(c.Request.Context(), id, &req)
	if err != nil {
		h.respondDeliveryError(c, id, err, job)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Asset submitted", job)
}

// DeleteAsset removes a stored object from the printer
// @Summary Delete a stored object
// @Description Remove a stored object from the printer's drive
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Param name path string true "Object name"
// @Param drive query string false "Drive letter; printer default when omitted"
// @Param ext query string false "Object extension" default(PNG)
// @Success 202 {object} utils.APIResponse{data=model.PrintJob} "Delete submitted"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 502 {object} utils.APIResponse "Delivery failed"
// @Router /printers/{id}/assets/{name} [delete]
func (h *JobHandler) DeleteAsset(c *gin.Context) {
	id, ok := printerIDParam(c)
	if !ok {
		return
	}

	name := c.Param("name")
	if name == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Object name is required", nil)
		return
	}

	ext := c.DefaultQuery("ext", "PNG")
	drive := c.Query("drive")

	job, err := h.jobService.DeleteObject(c.Request.Context(), id, drive, name, ext)
	if err != nil {
		h.respondDeliveryError(c, id, err, job)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Delete submitted", job)
}

// ListJobs lists jobs with filtering and pagination
// @Summary List jobs
// @Description Get submitted jobs with filtering and pagination
// @Tags Jobs
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param printer_id query string false "Filter by printer ID"
// @Param kind query string false "Filter by kind" Enums(LABEL, ASSET, RAW)
// @Param status query string false "Filter by status" Enums(PENDING, SENDING, COMPLETED, FAILED)
// @Param since query string false "Only jobs created after this RFC 3339 time"
// @Success 200 {object} utils.APIResponse{data=object{jobs=[]model.PrintJob,pagination=service.PaginationResult}} "Jobs retrieved successfully"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter := &repository.JobFilter{
		Page:    1,
		PerPage: 20,
	}

	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if perPage := c.Query("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 100 {
			filter.PerPage = pp
		}
	}

	if printerID := c.Query("printer_id"); printerID != "" {
		if pid, err := uuid.Parse(printerID); err == nil {
			filter.PrinterID = &pid
		}
	}
	if kind := c.Query("kind"); kind != "" {
		k := model.JobKind(kind)
		filter.Kind = &k
	}
	if status := c.Query("status"); status != "" {
		s := model.JobStatus(status)
		filter.Status = &s
	}
	if since := c.Query("since"); since != "" {
		if ts, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = &ts
		}
	}

	jobs, pagination, err := h.jobService.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Jobs retrieved successfully", gin.H{
		"jobs":       jobs,
		"pagination": pagination,
	})
}

// GetJob retrieves job details
// @Summary Get job details
// @Description Get one job's record and outcome
// @Tags Jobs
// @Accept json
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} utils.APIResponse{data=model.PrintJob} "Job retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid job ID"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid job ID", err)
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Job not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job retrieved successfully", job)
}

// GetJobStats aggregates job counters by status
// @Summary Get job statistics
// @Description Get job counters aggregated by status
// @Tags Jobs
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.JobStats} "Statistics retrieved successfully"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /jobs/stats [get]
func (h *JobHandler) GetJobStats(c *gin.Context) {
	stats, err := h.jobService.GetJobStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get job stats", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get job statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", stats)
}

// respondDeliveryError maps a submission failure to the HTTP status the
// failure mode deserves. A failed delivery still has a job record, which
// rides along in the response data.
func (h *JobHandler) respondDeliveryError(c *gin.Context, printerID uuid.UUID, err error, job *model.PrintJob) {
	h.logger.Error("Job submission failed",
		zap.Error(err),
		zap.String("printer_id", printerID.String()),
	)

	msg := err.Error()
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrPrinterBusy):
		status = http.StatusConflict
	case strings.Contains(msg, "printer not found"):
		status = http.StatusNotFound
	case strings.Contains(msg, "failed to open transport"),
		strings.Contains(msg, "delivery failed"),
		strings.Contains(msg, "failed to create transport"):
		status = http.StatusBadGateway
	}

	if job != nil {
		c.JSON(status, utils.APIResponse{
			Success:   false,
			Message:   "Job submission failed",
			Data:      job,
			Error:     &utils.APIError{Code: "DELIVERY_FAILED", Message: msg},
			Timestamp: time.Now(),
		})
		return
	}
	utils.ErrorResponse(c, status, "Job submission failed", err)
}

// RawRequest carries a caller-supplied command stream
type RawRequest struct {
	Data string `json:"data" binding:"required"`
}
