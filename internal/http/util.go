package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// ============================================
// 宽松字段提取
// 手表固件各版本字段名不一致（uId / lineId / users_id），
// 按别名列表逐个尝试，数字可能以字符串形式出现
// ============================================

func pickString(body map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := body[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val, true
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(val), true
		}
	}
	return "", false
}

func pickInt64(body map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		v, ok := body[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return int64(val), true
		case string:
			if i, err := strconv.ParseInt(val, 10, 64); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

func pickInt(body map[string]any, keys ...string) (int, bool) {
	i, ok := pickInt64(body, keys...)
	return int(i), ok
}

func pickFloat(body map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := body[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return val, true
		case string:
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func pickBool(body map[string]any, keys ...string) bool {
	for _, key := range keys {
		v, ok := body[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case bool:
			return val
		case string:
			return val == "true" || val == "1"
		case float64:
			return val != 0
		}
	}
	return false
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Success: false, Message: fmt.Sprintf(format, args...)})
}
