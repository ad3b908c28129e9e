package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// HistoryStore 轨迹查询接口（repository.Store 实现）
type HistoryStore interface {
	ListLocations(ctx context.Context, dependentID int64, since time.Time, limit int) ([]*models.LocationRecord, error)
}

// HistoryHandler 监护人端历史查询
type HistoryHandler struct {
	store  HistoryStore
	logger *zap.Logger
}

// NewHistoryHandler 创建历史查询处理器
func NewHistoryHandler(store HistoryStore, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:  store,
		logger: logger,
	}
}

// Locations GET /api/history/locations?uId=42&hours=24&limit=100
func (h *HistoryHandler) Locations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	id, err := strconv.ParseInt(q.Get("uId"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "missing dependent id")
		return
	}

	hours := queryInt(q.Get("hours"), 24)
	limit := queryInt(q.Get("limit"), 100)
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	records, err := h.store.ListLocations(r.Context(), id, since, limit)
	if err != nil {
		h.logger.Error("Location history query failed", zap.Int64("dependent_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"locations": records,
	})
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}
