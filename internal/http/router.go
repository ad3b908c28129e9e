// Package httpapi 手表上报与监护人操作的 HTTP 入口
package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// reportMethod 手表固件有的版本发 POST 有的发 PUT，两个都收
func reportMethod(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost && req.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterWatchRoutes 注册手表上报路由
func (r *Router) RegisterWatchRoutes(h *WatchHandler) {
	r.Handle("/api/watch/location-battery", reportMethod(h.Location))
	r.Handle("/api/watch/heart-rate", reportMethod(h.HeartRate))
	r.Handle("/api/watch/temperature", reportMethod(h.Temperature))
	r.Handle("/api/watch/fall", reportMethod(h.Fall))
}

// RegisterEmergencyRoutes 注册监护人操作路由
func (r *Router) RegisterEmergencyRoutes(h *EmergencyHandler) {
	r.Handle("/api/emergency/resolve", postOnly(h.Resolve))
}

// RegisterHistoryRoutes 注册监护人端历史查询路由
func (r *Router) RegisterHistoryRoutes(h *HistoryHandler) {
	r.Handle("/api/history/locations", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Locations(w, req)
	})
}

// RegisterHealthRoute 健康检查
func (r *Router) RegisterHealthRoute() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
