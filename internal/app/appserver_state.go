package app

import (
	"context"
	"time"

	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/types"
)

func (s *AppServer) startWatcher() {
	interval := time.Duration(s.settingsManager.Get().Detection.WatchInterval) * time.Second
	s.waitGroup.Add(1)
	go s.watchLoop(interval)
}

// watchLoop re-runs detection periodically and pushes a proxy_update to the
// dashboard whenever the outcome differs from the last one pushed. A zero
// interval parks the loop until the detection settings change.
func (s *AppServer) watchLoop(interval time.Duration) {
	defer s.waitGroup.Done()

	var ticker *time.Ticker
	var tick <-chan time.Time
	reset := func(d time.Duration) {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if d > 0 {
			ticker = time.NewTicker(d)
			tick = ticker.C
		}
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	reset(interval)
	if interval > 0 {
		s.checkOnce()
	} else {
		logger.Info().Msg("[Watcher] Proxy watcher is disabled (watch_interval is 0).")
	}

	for {
		select {
		case <-tick:
			s.checkOnce()
		case d := <-s.watchReset:
			logger.Debug().Dur("interval", d).Msg("[Watcher] Interval changed.")
			reset(d)
			if d > 0 {
				s.checkOnce()
			}
		case <-s.stopCh:
			return
		}
	}
}

// checkOnce runs a detection and broadcasts it if the outcome changed.
// It reports whether an update was broadcast.
func (s *AppServer) checkOnce() bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	proxy, err := s.DetectProxy(ctx, "")
	update := types.NewProxyUpdate(proxy, err)

	s.watchMu.Lock()
	changed := !update.Equal(s.lastUpdate)
	if changed {
		s.lastUpdate = update
	}
	s.watchMu.Unlock()

	if !changed {
		return false
	}
	if err != nil {
		logger.Warn().Err(err).Msg("[Watcher] Proxy detection failed.")
	} else {
		logger.Info().Str("proxy", proxy.String()).Msg("[Watcher] Proxy configuration changed.")
	}
	s.hub.BroadcastProxyUpdate(update)
	return true
}
