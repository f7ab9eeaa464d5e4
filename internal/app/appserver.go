package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"proxyscout/internal/core/detector"
	"proxyscout/internal/core/envproxy"
	"proxyscout/internal/service/web"
	"proxyscout/internal/shared/globalstate"
	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/settings"
	"proxyscout/internal/shared/types"
	"proxyscout/internal/sys/sysproxy"
)

// Version is stamped at build time with -ldflags "-X proxyscout/internal/app.Version=...".
var Version = "dev"

// AppServer is the application's main struct.
type AppServer struct {
	cfg          *types.Config
	settingsPath string

	settingsManager *settings.SettingsManager
	detector        *detector.Detector
	hub             *web.Hub //  Hub 实例
	status          *globalstate.StatusManager

	srvMu      sync.Mutex // guards httpServer
	httpServer *http.Server

	isMobileMode bool // 标记是否为移动模式

	// watcher state
	watchReset chan time.Duration
	watchMu    sync.Mutex
	lastUpdate *types.ProxyUpdate

	stopCh    chan struct{}
	waitGroup sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// AppServer must implement the web controller and settings subscriber interfaces.
var _ web.ServerController = (*AppServer)(nil)
var _ settings.ConfigurableModule = (*AppServer)(nil)

// NewForPC creates a new AppServer instance for PC/file-based mode.
// Runtime settings are persisted to settingsPath.
func NewForPC(cfg *types.Config, settingsPath string) (*AppServer, error) {
	cfg.ApplyDefaults()
	det := detector.New(envproxy.NewLive(nil), sysproxy.New(queryTimeout(cfg)), cfg.DetectConf.ProbeURL)
	return newAppServer(cfg, settingsPath, false, det)
}

// NewInMemory creates an AppServer whose runtime settings live in memory only.
// It backs the mobile bindings and the one-shot CLI mode.
func NewInMemory(cfg *types.Config) (*AppServer, error) {
	cfg.ApplyDefaults()
	det := detector.New(envproxy.NewLive(nil), sysproxy.New(queryTimeout(cfg)), cfg.DetectConf.ProbeURL)
	return newAppServer(cfg, "", true, det)
}

func newAppServer(cfg *types.Config, settingsPath string, mobile bool, det *detector.Detector) (*AppServer, error) {
	cfg.ApplyDefaults()
	sm, err := settings.NewSettingsManager(settingsPath, settings.Defaults{
		ProbeURL:      cfg.DetectConf.ProbeURL,
		WatchInterval: cfg.DetectConf.WatchInterval,
		LogLevel:      cfg.LogConf.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings manager: %w", err)
	}

	s := &AppServer{
		cfg:             cfg,
		settingsPath:    settingsPath,
		settingsManager: sm,
		detector:        det,
		hub:             web.NewHub(),
		status:          globalstate.NewStatusManager(),
		isMobileMode:    mobile,
		watchReset:      make(chan time.Duration, 1),
		stopCh:          make(chan struct{}),
	}

	// settings.json 中的运行时配置优先于 ini
	initialSettings := sm.Get()
	if err := det.OnSettingsUpdate(settings.ModuleDetection, initialSettings.Detection); err != nil {
		return nil, fmt.Errorf("failed to apply initial detection settings: %w", err)
	}
	if lvl := initialSettings.Logging.Level; lvl != "" && lvl != cfg.LogConf.Level {
		logger.SetLevel(lvl)
	}

	// Register subscribers for relevant modules
	sm.Register(settings.ModuleDetection, det)
	sm.Register(settings.ModuleDetection, s)
	sm.Register(settings.ModuleLogging, s)

	return s, nil
}

func queryTimeout(cfg *types.Config) time.Duration {
	return time.Duration(cfg.DetectConf.QueryTimeout) * time.Second
}

// Run is the server's entry point for PC mode. It blocks until Stop is called.
func (s *AppServer) Run() {
	s.startOnce.Do(func() {
		logger.Info().Str("version", Version).Msg("Starting server in 'local' mode...")

		go s.hub.Run() // 启动 Hub
		srv := web.StartServer(&s.waitGroup, s.cfg, s.settingsManager, s, s.hub, Version)

		s.srvMu.Lock()
		s.httpServer = srv
		stopped := s.stopped()
		s.srvMu.Unlock()
		if stopped {
			// Stop ran while the listener was coming up
			web.Shutdown(srv, 5*time.Second)
			return
		}

		s.startWatcher()
		s.setStatus(globalstate.StatusRunning)
	})

	<-s.stopCh
	s.Wait()
}

// StartMobile starts the background watcher without the web API.
// Calls after the first one are no-ops.
func (s *AppServer) StartMobile() {
	s.startOnce.Do(func() {
		if s.stopped() {
			return
		}
		logger.Info().Msg("Starting server in 'mobile' mode...")
		go s.hub.Run()
		s.startWatcher()
		s.setStatus(globalstate.StatusRunning)
	})
}

// Stop gracefully shuts down the server.
func (s *AppServer) Stop() {
	s.stopOnce.Do(func() {
		s.setStatus(globalstate.StatusStopping)
		close(s.stopCh)

		s.srvMu.Lock()
		srv := s.httpServer
		s.srvMu.Unlock()
		web.Shutdown(srv, 5*time.Second)

		s.hub.Stop()
		s.setStatus(globalstate.StatusStopped)
		logger.Info().Msg("Server stopped.")
	})
}

func (s *AppServer) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *AppServer) Wait() {
	s.waitGroup.Wait()
}

// DetectProxy runs one detection. An empty target uses the configured probe.
func (s *AppServer) DetectProxy(ctx context.Context, target string) (*types.DetectedProxy, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout(s.cfg)+time.Second)
	defer cancel()
	if target == "" {
		return s.detector.Detect(ctx)
	}
	return s.detector.DetectFor(ctx, target)
}

// GetStatus returns the service status shown by /api/status.
func (s *AppServer) GetStatus() string {
	return s.status.Get()
}

// SettingsManager exposes the runtime settings, mainly for the mobile bindings.
func (s *AppServer) SettingsManager() *settings.SettingsManager {
	return s.settingsManager
}

func (s *AppServer) setStatus(status string) {
	globalstate.GlobalStatus.Set(status)
	if s.status.Set(status) {
		s.hub.BroadcastStatusUpdate(status)
	}
}
