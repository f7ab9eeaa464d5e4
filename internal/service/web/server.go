package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/settings"
	"proxyscout/internal/shared/types"
)

const requestIDHeader = "X-Request-ID"

// --- DIAGNOSTIC HELPER: A listener that logs accepted connections ---
type loggingListener struct {
	net.Listener
}

func (l loggingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err == nil {
		logger.Debug().Msgf("[WebServer] Connection accepted from: %s", conn.RemoteAddr())
	}
	return conn, err
}

// basicAuthMiddleware 检查 web_user 和 web_password 是否已配置。
// 如果配置了，它将强制执行 HTTP Basic Authentication。
func basicAuthMiddleware(next http.Handler, user, pass string) http.Handler {
	// 如果用户名或密码未设置，则不启用认证，直接返回原始处理器
	if user == "" || pass == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized.\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware echoes the caller's X-Request-ID or assigns a new one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// NewMux wires every route of the web API.
func NewMux(
	cfg *types.Config,
	settingsManager *settings.SettingsManager,
	controller ServerController,
	hub *Hub,
	version string,
) http.Handler {
	handler := NewHandler(settingsManager, controller, version)
	mux := http.NewServeMux()

	// --- 认证保护的 API ---
	webUser := cfg.LocalConf.WebUser
	webPassword := cfg.LocalConf.WebPassword
	protect := func(h http.HandlerFunc) http.Handler {
		return requestIDMiddleware(basicAuthMiddleware(h, webUser, webPassword))
	}

	mux.Handle("/api/system/proxy", protect(handler.HandleSystemProxy))
	mux.Handle("/api/settings", protect(handler.HandleGetSettings))
	mux.Handle("/api/settings/", protect(handler.HandleUpdateSettings)) // 捕获 /api/settings/{module}

	// --- WebSocket Endpoint ---
	mux.Handle("/ws", basicAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}), webUser, webPassword))

	// 公开的状态 API
	mux.Handle("/api/status", requestIDMiddleware(http.HandlerFunc(handler.HandleStatus)))

	return mux
}

// StartServer starts the web API when web_port is set. The returned server
// is nil when the API is disabled or the port could not be bound.
func StartServer(
	wg *sync.WaitGroup,
	cfg *types.Config,
	settingsManager *settings.SettingsManager,
	controller ServerController,
	hub *Hub,
	version string,
) *http.Server {
	if cfg.LocalConf.WebPort <= 0 {
		logger.Info().Msg("[WebServer] Web API is disabled (web_port is 0 or not set).")
		return nil
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.LocalConf.WebPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error().Err(err).Str("addr", addr).Msg("[WebServer] Failed to start web API.")
		return nil
	}

	srv := &http.Server{
		Handler:           NewMux(cfg, settingsManager, controller, hub, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().Msgf("Web API is listening on http://%s", addr)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(loggingListener{Listener: listener}); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("[WebServer] Web server error.")
		}
		logger.Info().Msg("[WebServer] Web server stopped.")
	}()
	return srv
}

// Shutdown stops srv, waiting at most timeout for in-flight requests.
func Shutdown(srv *http.Server, timeout time.Duration) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("[WebServer] Graceful shutdown failed.")
	}
}
