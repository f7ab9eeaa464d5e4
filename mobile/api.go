package mobile

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"proxyscout/internal/app"
	"proxyscout/internal/shared/config"
	"proxyscout/internal/shared/globalstate"
	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/types"
)

var (
	// 全局变量，用于持有当前为移动端/宿主应用运行的唯一 AppServer 实例
	activeAppServer *app.AppServer
	instanceMutex   sync.Mutex
)

// Configure (re)initializes the Go core from the content of a proxyscout.ini
// file. An empty string uses the defaults. It must be called before Start;
// the Get* functions configure defaults lazily when it was not.
func Configure(iniContent string) (err error) {
	defer recoverToError(&err, "Configure")

	cfg := types.NewDefaultConfig()
	if iniContent != "" {
		if err := config.LoadIniContent(cfg, iniContent); err != nil {
			return fmt.Errorf("failed to parse ini content: %w", err)
		}
	}
	if err := logger.Init(cfg.LogConf); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	s, err := app.NewInMemory(cfg)
	if err != nil {
		return err
	}

	instanceMutex.Lock()
	defer instanceMutex.Unlock()
	if activeAppServer != nil {
		activeAppServer.Stop()
	}
	activeAppServer = s
	logger.Debug().Msg("Go core configured for mobile (in-memory).")
	return nil
}

// Start launches the background proxy watcher.
func Start() (err error) {
	defer recoverToError(&err, "Start")
	s, err := current()
	if err != nil {
		return err
	}
	s.StartMobile()
	return nil
}

// Stop stops the Go core.
func Stop() {
	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	if activeAppServer != nil {
		logger.Debug().Msg("Stopping Go core for mobile...")
		activeAppServer.Stop()
		activeAppServer = nil
	}
}

// GetSystemProxy returns the proxy URL to use, or an empty string when no
// proxy is configured.
func GetSystemProxy() (proxy string, err error) {
	defer recoverToError(&err, "GetSystemProxy")

	s, err := current()
	if err != nil {
		return "", err
	}
	p, err := s.DetectProxy(context.Background(), "")
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// GetSystemProxyJSON returns {"proxy": ..., "source": ...} or {"proxy": null}.
// A detection failure is reported in the "error" field rather than as a Go error.
func GetSystemProxyJSON() (result string, err error) {
	defer recoverToError(&err, "GetSystemProxyJSON")

	s, err := current()
	if err != nil {
		return "", err
	}
	p, detErr := s.DetectProxy(context.Background(), "")
	data, err := json.Marshal(types.NewProxyUpdate(p, detErr))
	if err != nil {
		return "", fmt.Errorf("failed to marshal proxy result: %w", err)
	}
	return string(data), nil
}

// UpdateSettings applies a runtime settings module, e.g. ("detection", `{"probe_url": "..."}`).
func UpdateSettings(moduleKey, settingsJson string) (err error) {
	defer recoverToError(&err, "UpdateSettings")
	s, err := current()
	if err != nil {
		return err
	}
	return s.SettingsManager().Update(moduleKey, []byte(settingsJson))
}

// GetStatus returns the service status string.
func GetStatus() string {
	return globalstate.GlobalStatus.Get()
}

func current() (*app.AppServer, error) {
	instanceMutex.Lock()
	s := activeAppServer
	instanceMutex.Unlock()
	if s != nil {
		return s, nil
	}
	if err := Configure(""); err != nil {
		return nil, err
	}
	instanceMutex.Lock()
	defer instanceMutex.Unlock()
	return activeAppServer, nil
}

// recoverToError converts panics into errors, which is safer for CGo boundaries.
func recoverToError(err *error, fn string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("go core panic in %s: %v\n\n%s", fn, r, debug.Stack())
	}
}
