// internal/handler/printer_handler.go
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"label-service/internal/model"
	"label-service/internal/repository"
	"label-service/internal/service"
	"label-service/internal/utils"
)

// PrinterHandler handles printer inventory HTTP requests
type PrinterHandler struct {
	printerService *service.PrinterService
	logger         *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printerService: printerService,
		logger:         utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer inventory routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printers := router.Group("/printers")
	{
		printers.POST("", h.RegisterPrinter)
		printers.GET("", h.ListPrinters)

		printerRoutes := printers.Group("/:id")
		{
			printerRoutes.GET("", h.GetPrinter)
			printerRoutes.PUT("", h.UpdatePrinter)
			printerRoutes.DELETE("", h.DeletePrinter)
			printerRoutes.POST("/test", h.TestPrinter)
		}
	}
}

// RegisterPrinter registers a new printer
// @Summary Register a new printer
// @Description Register a printer with its connection addressing
// @Tags Printers
// @Accept json
// @Produce json
// @Param request body service.RegisterPrinterRequest true "Printer registration request"
// @Success 201 {object} utils.APIResponse{data=model.Printer} "Printer registered successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Name already taken"
// @Router /printers [post]
func (h *PrinterHandler) RegisterPrinter(c *gin.Context) {
	var req service.RegisterPrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	printer, err := h.printerService.RegisterPrinter(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to register printer", zap.Error(err))
		utils.ErrorResponse(c, registerErrorStatus(err), "Failed to register printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Printer registered successfully", printer)
}

// registerErrorStatus maps registration failures to HTTP statuses
func registerErrorStatus(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already exists"):
		return http.StatusConflict
	case strings.Contains(msg, "validation failed"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListPrinters lists printers with filtering and pagination
// @Summary List printers
// @Description Get the printer inventory with filtering and pagination
// @Tags Printers
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param connection_type query string false "Filter by connection type" Enums(FTP, TCP, SERIAL, USB)
// @Param status query string false "Filter by status" Enums(ONLINE, OFFLINE, UNKNOWN)
// @Param model query string false "Filter by model"
// @Param search query string false "Search in name and model"
// @Success 200 {object} utils.APIResponse{data=object{printers=[]model.Printer,pagination=service.PaginationResult}} "Printers retrieved successfully"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /printers [get]
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	filter := &repository.PrinterFilter{
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

	if connType := c.Query("connection_type"); connType != "" {
		ct := model.ConnectionType(connType)
		filter.ConnectionType = &ct
	}
	if status := c.Query("status"); status != "" {
		s := model.PrinterStatus(status)
		filter.Status = &s
	}
	if printerModel := c.Query("model"); printerModel != "" {
		filter.Model = &printerModel
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}

	printers, pagination, err := h.printerService.ListPrinters(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list printers", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list printers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printers retrieved successfully", gin.H{
		"printers":   printers,
		"pagination": pagination,
	})
}

// GetPrinter retrieves printer by ID
// @Summary Get printer details
// @Description Get one printer's record and current status
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse{data=model.Printer} "Printer retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid printer ID"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{id} [get]
func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	id, ok := printerIDParam(c)
	if !ok {
		return
	}

	printer, err := h.printerService.GetPrinter(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Printer not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer retrieved successfully", printer)
}

// UpdatePrinter updates a printer's name, model or addressing
// @Summary Update printer
// @Description Update printer fields; omitted fields are left unchanged
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Param request body service.UpdatePrinterRequest true "Printer update request"
// @Success 200 {object} utils.APIResponse{data=model.Printer} "Printer updated successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{id} [put]
func (h *PrinterHandler) UpdatePrinter(c *gin.Context) {
	id, ok := printerIDParam(c)
	if !ok {
		return
	}

	var req service.UpdatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	printer, err := h.printerService.UpdatePrinter(c.Request.Context(), id, &req)
	if err != nil {
		h.logger.Error("Failed to update printer", zap.Error(err), zap.String("printer_id", id.String()))
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		} else if strings.Contains(err.Error(), "validation failed") {
			status = http.StatusBadRequest
		}
		utils.ErrorResponse(c, status, "Failed to update printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer updated successfully", printer)
}

// DeletePrinter removes a printer from the inventory
// @Summary Delete printer
// @Description Remove a printer from the inventory
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse "Printer deleted successfully"
// @Failure 400 {object} utils.APIResponse "Invalid printer ID"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{id} [delete]
func (h *PrinterHandler) DeletePrinter(c *gin.Context) {
	id, ok := printerIDParam(c)
	if !ok {
		return
	}

	if err := h.printerService.DeletePrinter(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete printer", zap.Error(err), zap.String("printer_id", id.String()))
		utils.ErrorResponse(c, http.StatusNotFound, "Failed to delete printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer deleted successfully", gin.H{"printer_id": id.String()})
}

// TestPrinter probes printer reachability
// @Summary Test printer reachability
// @Description Open the printer's transport and send a host status probe
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse{data=service.TestResult} "Printer test completed"
// @Failure 400 {object} utils.APIResponse "Invalid printer ID"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{id}/test [post]
func (h *PrinterHandler) TestPrinter(c *gin.Context) {
	id, ok := printerIDParam(c)
	if !ok {
		return
	}

	result, err := h.printerService.TestPrinter(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Failed to test printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer test completed", result)
}

// Helper functions

// printerIDParam parses the :id path parameter, answering 400 itself on
// a malformed value
func printerIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid printer ID", err)
		return uuid.Nil, false
	}
	return id, true
}
