// Package sysproxy reads the proxy configured in the operating system's
// settings: the Windows registry, macOS System Configuration and the
// GNOME/KDE desktop settings on Linux.
package sysproxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-ieproxy"
	"github.com/rs/zerolog"

	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/types"
)

// ErrUnsupported is returned on platforms without a system proxy store.
var ErrUnsupported = errors.New("system proxy query is not supported on this platform")

// Querier reads the system-wide proxy configuration.
// The zero value is not usable; use New.
type Querier struct {
	timeout    time.Duration
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
	readFile   func(name string) ([]byte, error)
	getenv     func(string) string
	homeDir    func() (string, error)
	proxyConf  func() ieproxy.ProxyConf
}

// New creates a Querier whose platform lookups are bounded by timeout.
// A non-positive timeout disables the bound.
func New(timeout time.Duration) *Querier {
	return &Querier{
		timeout:    timeout,
		runCommand: runCommand,
		readFile:   os.ReadFile,
		getenv:     os.Getenv,
		homeDir:    os.UserHomeDir,
		proxyConf:  ieproxy.ReloadConf,
	}
}

// Get returns the current system proxy configuration.
func (q *Querier) Get(ctx context.Context) (*types.SystemProxy, error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	p, err := q.query(ctx)
	if err != nil {
		q.log().Debug().Err(err).Msg("System proxy query failed.")
		return nil, err
	}
	// 开启了代理但没有填写主机，视为未配置
	if p.Enabled && p.Host == "" {
		p.Enabled = false
	}
	q.log().Debug().
		Bool("enabled", p.Enabled).
		Str("address", p.Address()).
		Dur("elapsed", time.Since(start)).
		Msg("System proxy queried.")
	return p, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// parsePort validates a TCP port number.
func parsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid proxy port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("proxy port %d out of range", port)
	}
	return port, nil
}

// splitHostPort splits "host:port", tolerating a leading "scheme://".
func splitHostPort(s string) (string, int, error) {
	s = stripScheme(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "/")
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, fmt.Errorf("invalid proxy server %q: %w", s, err)
	}
	port, err := parsePort(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

func stripScheme(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		return s[i+3:]
	}
	return s
}

// log returns the component logger. It is fetched per call so runtime level
// changes apply.
func (q *Querier) log() *zerolog.Logger {
	l := logger.WithComponent("sysproxy")
	return &l
}
