// Package detector decides which proxy, if any, the host application should
// use. Proxy environment variables take precedence over the operating
// system's proxy settings.
package detector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/settings"
	"proxyscout/internal/shared/types"
)

// EnvResolver resolves a proxy for a target URL from environment variables.
// A nil URL with a nil error means "go direct".
type EnvResolver interface {
	ProxyFor(target *url.URL) (*url.URL, error)
}

// SystemQuerier reads the OS-level proxy configuration.
type SystemQuerier interface {
	Get(ctx context.Context) (*types.SystemProxy, error)
}

// Detector is stateless apart from the probe URL and safe for concurrent use.
type Detector struct {
	env      EnvResolver
	system   SystemQuerier
	probeURL atomic.Value // string
}

// Detector must implement settings.ConfigurableModule
var _ settings.ConfigurableModule = (*Detector)(nil)

// New creates a Detector. probeURL is only used to evaluate the environment
// rules for an HTTPS destination; it is never contacted. Empty means
// types.DefaultProbeURL.
func New(env EnvResolver, system SystemQuerier, probeURL string) *Detector {
	d := &Detector{
		env:    env,
		system: system,
	}
	d.SetProbeURL(probeURL)
	return d
}

// SetProbeURL replaces the probe used by Detect.
func (d *Detector) SetProbeURL(probeURL string) {
	if strings.TrimSpace(probeURL) == "" {
		probeURL = types.DefaultProbeURL
	}
	d.probeURL.Store(probeURL)
}

// ProbeURL returns the probe currently used by Detect.
func (d *Detector) ProbeURL() string {
	return d.probeURL.Load().(string)
}

// Detect returns the proxy to use, or nil when none is configured. The only
// error is a *DetectionError from the OS-level query.
func (d *Detector) Detect(ctx context.Context) (*types.DetectedProxy, error) {
	probe, err := url.Parse(d.ProbeURL())
	if err != nil {
		d.log().Warn().Err(err).Str("probe", d.ProbeURL()).Msg("Invalid probe URL, skipping environment check.")
		probe = nil
	}
	return d.detect(ctx, probe)
}

// DetectFor is Detect evaluated against the caller's real destination, so
// host-specific NO_PROXY rules apply.
func (d *Detector) DetectFor(ctx context.Context, target string) (*types.DetectedProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: scheme and host are required", target)
	}
	return d.detect(ctx, u)
}

func (d *Detector) detect(ctx context.Context, target *url.URL) (*types.DetectedProxy, error) {
	// 1. 环境变量优先
	if target != nil {
		if p := d.fromEnvironment(target); p != nil {
			return p, nil
		}
	}

	// 2. 系统代理设置
	sp, err := d.system.Get(ctx)
	if err != nil {
		d.log().Error().Err(err).Msg("System proxy query failed.")
		return nil, newDetectionError(err)
	}
	if sp == nil || !sp.Enabled {
		d.log().Debug().Msg("No proxy configured.")
		return nil, nil
	}

	proxyURL := FormatSystemProxy(sp)
	d.log().Debug().Str("proxy", proxyURL).Msg("Proxy found in system settings.")
	return &types.DetectedProxy{URL: proxyURL, Source: types.SourceSystem}, nil
}

func (d *Detector) fromEnvironment(target *url.URL) *types.DetectedProxy {
	u, err := d.env.ProxyFor(target)
	if err != nil {
		d.log().Debug().Err(err).Msg("Environment proxy lookup failed, falling back to system settings.")
		return nil
	}
	if u == nil {
		return nil
	}
	d.log().Debug().Str("proxy", u.String()).Str("target", target.Host).Msg("Proxy found in environment.")
	return &types.DetectedProxy{URL: u.String(), Source: types.SourceEnvironment}
}

func (d *Detector) log() *zerolog.Logger {
	l := logger.WithComponent("detector")
	return &l
}

// SchemeFor classifies an OS proxy host. The OS settings carry no protocol
// field, so a host containing "socks" is taken to be a SOCKS5 proxy.
func SchemeFor(host string) string {
	if strings.Contains(host, "socks") {
		return types.SchemeSOCKS5
	}
	return types.SchemeHTTP
}

// FormatSystemProxy renders scheme://host:port. The host is written verbatim.
func FormatSystemProxy(sp *types.SystemProxy) string {
	return SchemeFor(sp.Host) + "://" + sp.Host + ":" + strconv.Itoa(sp.Port)
}

// OnSettingsUpdate applies the "detection" runtime settings module.
func (d *Detector) OnSettingsUpdate(moduleKey string, newSettings interface{}) error {
	if moduleKey != settings.ModuleDetection {
		return nil
	}
	ds, ok := newSettings.(*settings.DetectionSettings)
	if !ok {
		return fmt.Errorf("unexpected settings type %T for module %s", newSettings, moduleKey)
	}
	if ds.ProbeURL != "" {
		if _, err := url.Parse(ds.ProbeURL); err != nil {
			return fmt.Errorf("invalid probe_url: %w", err)
		}
	}
	d.SetProbeURL(ds.ProbeURL)
	d.log().Info().Str("probe", d.ProbeURL()).Msg("Detection settings applied.")
	return nil
}
