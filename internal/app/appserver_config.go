package app

import (
	"fmt"
	"time"

	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/settings"
)

// OnSettingsUpdate reacts to runtime settings changes. The detector applies
// its own part of the detection module; here the watcher interval and log
// level are picked up.
func (s *AppServer) OnSettingsUpdate(moduleKey string, newSettings interface{}) error {
	switch moduleKey {
	case settings.ModuleDetection:
		ds, ok := newSettings.(*settings.DetectionSettings)
		if !ok {
			return fmt.Errorf("unexpected settings type %T for module %s", newSettings, moduleKey)
		}
		interval := time.Duration(ds.WatchInterval) * time.Second
		// 只保留最新的一次间隔变更
		select {
		case <-s.watchReset:
		default:
		}
		select {
		case s.watchReset <- interval:
		default:
		}
		return nil
	case settings.ModuleLogging:
		ls, ok := newSettings.(*settings.LoggingSettings)
		if !ok {
			return fmt.Errorf("unexpected settings type %T for module %s", newSettings, moduleKey)
		}
		if ls.Level != "" {
			logger.SetLevel(ls.Level)
		}
		return nil
	default:
		return nil
	}
}
