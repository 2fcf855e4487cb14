// internal/handler/history_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"serial-monitor/internal/repository"
	"serial-monitor/internal/utils"
)

// HistoryHandler serves the session journal
type HistoryHandler struct {
	repo   repository.JournalRepository
	logger *utils.ServiceLogger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(repo repository.JournalRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: utils.NewServiceLogger(logger, "history-handler"),
	}
}

// RegisterRoutes registers history routes
func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
	}
}

// ListSessions lists past and current sessions, newest first
// @Summary List sessions
// @Tags History
// @Produce json
// @Param limit query int false "Maximum entries" default(50)
// @Param path query string false "Filter by port path"
// @Success 200 {object} utils.APIResponse{data=[]model.SessionRecord} "Sessions listed"
// @Failure 400 {object} utils.APIResponse "Invalid limit"
// @Router /sessions [get]
func (h *HistoryHandler) ListSessions(c *gin.Context) {
	filter := &repository.SessionFilter{Limit: repository.DefaultSessionLimit}

	if limit := c.Query("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil || l <= 0 || l > 1000 {
			utils.ValidationErrorResponse(c, map[string]string{"limit": "must be between 1 and 1000"})
			return
		}
		filter.Limit = l
	}
	if path := c.Query("path"); path != "" {
		filter.Path = &path
	}

	sessions, err := h.repo.ListSessions(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list sessions", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Sessions retrieved", sessions)
}

// GetSession returns one session with its recording files
// @Summary Get session
// @Tags History
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=model.SessionRecord} "Session retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid session ID"
// @Failure 404 {object} utils.APIResponse "Session not found"
// @Router /sessions/{id} [get]
func (h *HistoryHandler) GetSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid session ID", err)
		return
	}

	session, err := h.repo.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Session not found", err)
			return
		}
		h.logger.Error("Failed to get session", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get session", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session retrieved", session)
}
