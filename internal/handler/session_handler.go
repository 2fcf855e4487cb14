// internal/handler/session_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-monitor/internal/service"
	"serial-monitor/internal/utils"
)

// SessionHandler handles session command requests
type SessionHandler struct {
	commands *sessionCommands
	manager  *service.SessionManager
	logger   *utils.ServiceLogger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(manager *service.SessionManager, promptTimeout time.Duration, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		commands: newSessionCommands(manager, promptTimeout),
		manager:  manager,
		logger:   utils.NewServiceLogger(logger, "session-handler"),
	}
}

// RegisterRoutes registers session routes
func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	session := router.Group("/session")
	{
		session.GET("", h.GetStatus)
		session.PUT("/config", h.Configure)
		session.POST("/connection/toggle", h.ToggleConnection)
		session.POST("/connection/disconnect", h.Disconnect)
		session.POST("/send", h.Send)

		recording := session.Group("/recording")
		{
			recording.PUT("/folder", h.SetRecordingFolder)
			recording.POST("/folder/pick", h.PickRecordingFolder)
			recording.POST("/toggle", h.ToggleRecording)
		}
	}
}

// GetStatus returns the session snapshot
// @Summary Get session status
// @Description Connection, recording and link statistics of the device session
// @Tags Session
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.SessionStatus} "Session status"
// @Router /session [get]
func (h *SessionHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Session status retrieved", h.manager.Status())
}

// Configure sets the device path, baud rate and frame mode
// @Summary Configure the device
// @Description Set the port path, baud rate and frame mode. Only allowed while disconnected.
// @Tags Session
// @Accept json
// @Produce json
// @Param request body ConfigureRequest true "Device configuration"
// @Success 200 {object} utils.APIResponse{data=model.SessionStatus} "Configuration applied"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Session is connected or configuration invalid"
// @Router /session/config [put]
func (h *SessionHandler) Configure(c *gin.Context) {
	var req ConfigureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status, err := h.commands.configure(&req)
	if err != nil {
		h.fail(c, "Failed to configure device", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device configured", status)
}

// ToggleConnection opens or closes the device
// @Summary Toggle connection
// @Description Open the configured port when closed, close it when open
// @Tags Session
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{connected=bool}} "Connection toggled"
// @Failure 404 {object} utils.APIResponse "Port not available"
// @Failure 409 {object} utils.APIResponse "Recording in progress"
// @Failure 502 {object} utils.APIResponse "Port could not be opened"
// @Router /session/connection/toggle [post]
func (h *SessionHandler) ToggleConnection(c *gin.Context) {
	result, err := h.commands.toggleConnection(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to toggle connection", err)
		return
	}

	h.logger.Info("Connection toggled", zap.Any("connected", result["connected"]))
	utils.SuccessResponse(c, http.StatusOK, "Connection toggled", result)
}

// Disconnect closes the device, stopping any recording
// @Summary Force disconnect
// @Description Close the port even while recording
// @Tags Session
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{disconnected=bool}} "Disconnected"
// @Router /session/connection/disconnect [post]
func (h *SessionHandler) Disconnect(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Disconnect completed", h.commands.disconnect())
}

// Send writes bytes to the device
// @Summary Send bytes
// @Description Write raw bytes, a hex string or an encoded command frame to the device
// @Tags Session
// @Accept json
// @Produce json
// @Param request body SendRequest true "Payload"
// @Success 200 {object} utils.APIResponse{data=object{bytes_written=int,hex=string}} "Message sent"
// @Failure 400 {object} utils.APIResponse "Invalid payload"
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 502 {object} utils.APIResponse "Write failed"
// @Router /session/send [post]
func (h *SessionHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.commands.send(&req)
	if err != nil {
		h.fail(c, "Failed to send message", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Message sent successfully", result)
}

// SetRecordingFolder stores the recording folder
// @Summary Set recording folder
// @Tags Recording
// @Accept json
// @Produce json
// @Param request body FolderRequest true "Folder"
// @Success 200 {object} utils.APIResponse{data=object{folder=string}} "Folder set"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /session/recording/folder [put]
func (h *SessionHandler) SetRecordingFolder(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.commands.setFolder(&req)
	if err != nil {
		h.fail(c, "Failed to set recording folder", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recording folder set", result)
}

// PickRecordingFolder asks a connected operator to choose the folder
// @Summary Pick recording folder
// @Description Send a folder prompt to connected WebSocket clients and wait for the answer
// @Tags Recording
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{folder=string}} "Folder picked"
// @Failure 409 {object} utils.APIResponse "Prompt cancelled"
// @Failure 503 {object} utils.APIResponse "No client connected"
// @Failure 504 {object} utils.APIResponse "Prompt timed out"
// @Router /session/recording/folder/pick [post]
func (h *SessionHandler) PickRecordingFolder(c *gin.Context) {
	result, err := h.commands.pickFolder(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to pick recording folder", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recording folder set", result)
}

// ToggleRecording starts or stops recording
// @Summary Toggle recording
// @Description Start recording raw traffic to rotating files, or stop the active recording
// @Tags Recording
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{recording=bool}} "Recording toggled"
// @Failure 409 {object} utils.APIResponse "Not connected or folder not set"
// @Failure 500 {object} utils.APIResponse "File could not be created"
// @Router /session/recording/toggle [post]
func (h *SessionHandler) ToggleRecording(c *gin.Context) {
	result, err := h.commands.toggleRecording(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to toggle recording", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recording toggled", result)
}

func (h *SessionHandler) fail(c *gin.Context, message string, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err), zap.String("code", code))
	} else {
		h.logger.Warn(message, zap.Error(err), zap.String("code", code))
	}
	utils.CodedErrorResponse(c, status, code, message, err)
}
