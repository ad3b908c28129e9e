package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/engine"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/repository"
)

const maxBodyBytes = 1 << 20

// WatchService 决策引擎接口（engine.Engine 实现）
type WatchService interface {
	HandleLocation(ctx context.Context, rep engine.LocationReport) (*models.DeviceSyncResponse, error)
	HandleHeartRate(ctx context.Context, rep engine.HeartRateReport) (*engine.Result, error)
	HandleTemperature(ctx context.Context, rep engine.TemperatureReport) (*engine.Result, error)
	HandleFall(ctx context.Context, rep engine.FallReport) (*engine.Result, error)
	Resolve(ctx context.Context, dependentID int64, handler string) (*engine.Result, error)
}

// WatchHandler 手表上报入口
type WatchHandler struct {
	service WatchService
	logger  *zap.Logger
}

// NewWatchHandler 创建手表上报处理器
func NewWatchHandler(service WatchService, logger *zap.Logger) *WatchHandler {
	return &WatchHandler{
		service: service,
		logger:  logger,
	}
}

// dependentID 提取被监护人 ID，固件各版本字段名不同
func dependentID(body map[string]any) (int64, bool) {
	return pickInt64(body, "uId", "lineId", "users_id", "dependent_id")
}

// Location POST/PUT /api/watch/location-battery
func (h *WatchHandler) Location(w http.ResponseWriter, r *http.Request) {
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

	lat, _ := pickFloat(body, "latitude", "lat")
	lng, _ := pickFloat(body, "longitude", "lng")
	battery, _ := pickInt(body, "battery")
	distance, _ := pickInt(body, "distance")
	rawStatus, _ := pickInt(body, "status")

	rep := engine.LocationReport{
		DependentID:    id,
		Latitude:       lat,
		Longitude:      lng,
		Battery:        battery,
		Distance:       distance,
		RawStatus:      rawStatus,
		LocationViewed: pickBool(body, "location_status"),
	}

	resp, err := h.service.HandleLocation(r.Context(), rep)
	if err != nil {
		writeServiceError(w, h.logger, err, "location report failed", id)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HeartRate POST/PUT /api/watch/heart-rate
func (h *WatchHandler) HeartRate(w http.ResponseWriter, r *http.Request) {
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

	bpm, _ := pickInt(body, "bpm", "heart_rate")

	res, err := h.service.HandleHeartRate(r.Context(), engine.HeartRateReport{
		DependentID: id,
		Bpm:         bpm,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "heart rate report failed", id)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Temperature POST/PUT /api/watch/temperature
func (h *WatchHandler) Temperature(w http.ResponseWriter, r *http.Request) {
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

	value, _ := pickFloat(body, "value", "temperature_value", "temperature")

	res, err := h.service.HandleTemperature(r.Context(), engine.TemperatureReport{
		DependentID: id,
		Value:       value,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "temperature report failed", id)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Fall POST/PUT /api/watch/fall
func (h *WatchHandler) Fall(w http.ResponseWriter, r *http.Request) {
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

	// fall_status 固件发字符串 "-1"/"0"/"1"，旧版发数字
	fallStatus, ok := pickString(body, "fall_status", "status")
	if !ok {
		writeError(w, http.StatusBadRequest, "missing fall_status")
		return
	}

	rep := engine.FallReport{
		DependentID: id,
		FallStatus:  fallStatus,
	}
	rep.XAxis, _ = pickFloat(body, "x_axis", "x")
	rep.YAxis, _ = pickFloat(body, "y_axis", "y")
	rep.ZAxis, _ = pickFloat(body, "z_axis", "z")

	if lat, ok := pickFloat(body, "latitude", "lat"); ok {
		rep.Latitude = &lat
	}
	if lng, ok := pickFloat(body, "longitude", "lng"); ok {
		rep.Longitude = &lng
	}

	res, err := h.service.HandleFall(r.Context(), rep)
	if err != nil {
		writeServiceError(w, h.logger, err, "fall report failed", id)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, msg string, dependentID int64) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "dependent not found")
		return
	}
	logger.Error(msg, zap.Int64("dependent_id", dependentID), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
