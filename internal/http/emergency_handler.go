package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// EmergencyHandler 监护人端紧急事件操作
type EmergencyHandler struct {
	service WatchService
	logger  *zap.Logger
}

// NewEmergencyHandler 创建紧急事件处理器
func NewEmergencyHandler(service WatchService, logger *zap.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		service: service,
		logger:  logger,
	}
}

// Resolve POST /api/emergency/resolve
// 监护人确认处理完成：解除跌倒/求助，围栏 latch 清零
func (h *EmergencyHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, ok := dependentID(body)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing dependent id")
		return
	}

	handler, _ := pickString(body, "handler", "caregiver", "resolved_by")

	res, err := h.service.Resolve(r.Context(), id, handler)
	if err != nil {
		writeServiceError(w, h.logger, err, "resolve failed", id)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
