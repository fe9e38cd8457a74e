// internal/handler/discovery_handler.go
package handler

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"label-service/internal/service"
	"label-service/internal/utils"
)

// DiscoveryHandler handles printer discovery requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	discovery := router.Group("/discovery")
	{
		discovery.POST("/scan", h.Scan)
		discovery.GET("/scanners", h.ListScanners)
		discovery.GET("/interfaces", h.ListInterfaces)
	}
}

// Scan scans for reachable printers
// @Summary Scan for printers
// @Description Scan the configured network ranges, USB bus and serial ports for printers
// @Tags Discovery
// @Accept json
// @Produce json
// @Param request body service.ScanRequest false "Scan request"
// @Success 200 {object} utils.APIResponse{data=service.ScanResult} "Printer scan completed"
// @Failure 400 {object} utils.APIResponse "Invalid scan type"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /discovery/scan [post]
func (h *DiscoveryHandler) Scan(c *gin.Context) {
	req := &service.ScanRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	result, err := h.discoveryService.Scan(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to scan for printers", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to scan for printers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer scan completed", result)
}

// ListScanners reports available scan media
// @Summary List available scanners
// @Description Report which scan media can run on this host
// @Tags Discovery
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{scanners=[]string}} "Scanners retrieved"
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) ListScanners(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Scanners retrieved", gin.H{
		"scanners": h.discoveryService.AvailableScanners(),
	})
}

// ListInterfaces reports the host's network interfaces and their subnets,
// useful for picking a scan range
// @Summary List network interfaces
// @Description Get the host's network interfaces with their addresses
// @Tags Discovery
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{interfaces=[]NetworkInterface}} "Interfaces retrieved"
// @Failure 500 {object} utils.APIResponse "Failed to list interfaces"
// @Router /discovery/interfaces [get]
func (h *DiscoveryHandler) ListInterfaces(c *gin.Context) {
	ifaces, err := net.Interfaces()
	if err != nil {
		h.logger.Error("Failed to list interfaces", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list interfaces", err)
		return
	}

	var result []NetworkInterface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		ni := NetworkInterface{Name: iface.Name}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			ni.Addresses = append(ni.Addresses, ipnet.String())
		}
		if len(ni.Addresses) > 0 {
			result = append(result, ni)
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Interfaces retrieved", gin.H{
		"interfaces": result,
	})
}

// NetworkInterface is one up, non-loopback interface with IPv4 addresses
type NetworkInterface struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
}
