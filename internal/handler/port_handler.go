// internal/handler/port_handler.go
package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-monitor/internal/discovery"
	"serial-monitor/internal/model"
	"serial-monitor/internal/utils"
	"serial-monitor/pkg/framing"
)

// PortHandler handles port discovery and catalogue requests
type PortHandler struct {
	scanners *discovery.ScannerManager
	logger   *utils.ServiceLogger
}

// NewPortHandler creates a new port handler
func NewPortHandler(scanners *discovery.ScannerManager, logger *zap.Logger) *PortHandler {
	return &PortHandler{
		scanners: scanners,
		logger:   utils.NewServiceLogger(logger, "port-handler"),
	}
}

// RegisterRoutes registers port routes
func (h *PortHandler) RegisterRoutes(router *gin.RouterGroup) {
	ports := router.Group("/ports")
	{
		ports.GET("", h.ListPorts)
		ports.GET("/baud-rates", h.ListBaudRates)
		ports.GET("/scanners", h.ListScanners)
	}
	router.GET("/commands", h.ListCommands)
}

// ListPorts lists device paths that can be opened
// @Summary List ports
// @Description Enumerate serial ports and configured network endpoints
// @Tags Ports
// @Produce json
// @Param type query string false "Scanner type" Enums(all, serial, tcp) default(all)
// @Success 200 {object} utils.APIResponse{data=object{count=int,ports=[]model.PortInfo}} "Ports listed"
// @Failure 400 {object} utils.APIResponse "Unknown scanner type"
// @Router /ports [get]
func (h *PortHandler) ListPorts(c *gin.Context) {
	scanType := c.DefaultQuery("type", "all")

	var ports []model.PortInfo
	if scanType == "all" {
		ports = h.scanners.ListPorts(c.Request.Context())
	} else {
		var err error
		ports, err = h.scanners.ScanByType(c.Request.Context(), scanType)
		if err != nil {
			h.logger.Warn("Port scan failed", zap.String("type", scanType), zap.Error(err))
			utils.ErrorResponse(c, http.StatusBadRequest, "Failed to scan ports", err)
			return
		}
		if ports == nil {
			ports = []model.PortInfo{}
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Ports listed", gin.H{
		"count": len(ports),
		"ports": ports,
	})
}

// ListBaudRates returns the standard baud rates
// @Summary List baud rates
// @Tags Ports
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]int} "Baud rates"
// @Router /ports/baud-rates [get]
func (h *PortHandler) ListBaudRates(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Baud rates listed", model.StandardBaudRates)
}

// ListScanners returns the available scanner types
// @Summary List scanners
// @Tags Ports
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string} "Scanner types"
// @Router /ports/scanners [get]
func (h *PortHandler) ListScanners(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Scanners listed", h.scanners.GetAvailableScanners())
}

// CommandInfo describes one entry of the frame command catalogue
type CommandInfo struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// ListCommands returns the frame command catalogue
// @Summary List frame commands
// @Tags Ports
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]CommandInfo} "Command catalogue"
// @Router /commands [get]
func (h *PortHandler) ListCommands(c *gin.Context) {
	commands := make([]CommandInfo, 0)
	for id, name := range framing.Commands() {
		commands = append(commands, CommandInfo{ID: uint8(id), Name: name})
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].ID < commands[j].ID })

	utils.SuccessResponse(c, http.StatusOK, "Commands listed", commands)
}
