package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-monitor/internal/model"
	"serial-monitor/internal/repository"
)

func TestHistoryEndpoints(t *testing.T) {
	repo := repository.NewMemoryJournalRepository()
	ctx := context.Background()
	opened := time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

	first := &model.SessionRecord{ID: uuid.New(), Path: "COM3", BaudRate: 9600, FrameMode: "fixed", OpenedAt: opened}
	second := &model.SessionRecord{ID: uuid.New(), Path: "/dev/ttyUSB0", BaudRate: 115200, FrameMode: "raw", OpenedAt: opened.Add(time.Hour)}
	require.NoError(t, repo.CreateSession(ctx, first))
	require.NoError(t, repo.CreateSession(ctx, second))

	router := gin.New()
	NewHistoryHandler(repo, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))

	code, resp := get(t, router, "/api/v1/sessions")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data, 2)

	code, resp = get(t, router, "/api/v1/sessions?path=COM3")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data, 1)

	code, _ = get(t, router, "/api/v1/sessions?limit=0")
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = get(t, router, "/api/v1/sessions/"+first.ID.String())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "COM3", dataMap(t, resp)["path"])

	code, _ = get(t, router, "/api/v1/sessions/"+uuid.New().String())
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, router, "/api/v1/sessions/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, code)
}
