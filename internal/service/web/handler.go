package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"proxyscout/internal/core/detector"
	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/settings"
	"proxyscout/internal/shared/types"
)

// ServerController defines the interface that the web handler uses to interact with the AppServer.
// This decouples the web package from the app package.
type ServerController interface {
	DetectProxy(ctx context.Context, target string) (*types.DetectedProxy, error)
	GetStatus() string
}

type Handler struct {
	settingsManager *settings.SettingsManager
	controller      ServerController
	version         string
}

func NewHandler(settingsManager *settings.SettingsManager, controller ServerController, version string) *Handler {
	return &Handler{
		settingsManager: settingsManager,
		controller:      controller,
		version:         version,
	}
}

// HandleSystemProxy 处理 GET /api/system/proxy[?target=URL] 请求
func (h *Handler) HandleSystemProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("target"))
	start := time.Now()
	proxy, err := h.controller.DetectProxy(r.Context(), target)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, detector.ErrDetectionFailed) {
			status = http.StatusInternalServerError
		}
		logger.Warn().Err(err).Str("request_id", w.Header().Get(requestIDHeader)).Str("target", target).Msg("[Handler] Proxy detection failed.")
		writeJSON(w, status, types.NewProxyUpdate(nil, err))
		return
	}

	logger.Debug().
		Str("request_id", w.Header().Get(requestIDHeader)).
		Str("proxy", proxy.String()).
		Dur("elapsed", time.Since(start)).
		Msg("[Handler] Proxy detection served.")
	writeJSON(w, http.StatusOK, types.NewProxyUpdate(proxy, nil))
}

// HandleGetSettings 处理 GET /api/settings 请求
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.settingsManager.Get())
}

// HandleUpdateSettings 处理 POST /api/settings/{module} 请求
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 从 URL 路径中提取模块名
	moduleKey := strings.TrimPrefix(r.URL.Path, "/api/settings/")
	if moduleKey == "" {
		http.Error(w, "Module key is missing in URL path", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}

	// 将更新请求委托给 SettingsManager
	if err := h.settingsManager.Update(moduleKey, body); err != nil {
		// 根据错误类型返回不同的状态码
		if strings.Contains(err.Error(), "unknown settings module") {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else if strings.Contains(err.Error(), "failed to parse JSON") || strings.Contains(err.Error(), "invalid settings") {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	logger.Info().Str("module", moduleKey).Msg("[Handler] Runtime settings updated.")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Settings updated successfully"})
}

// HandleStatus 处理 GET /api/status 请求 (公开)
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	type StatusResponse struct {
		GlobalStatus string `json:"globalStatus"`
		Version      string `json:"version"`
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		GlobalStatus: h.controller.GetStatus(),
		Version:      h.version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("[Handler] Failed to encode JSON response.")
	}
}
