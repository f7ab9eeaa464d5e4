// Package envproxy resolves the proxy a client should use for a URL from the
// conventional proxy environment variables.
package envproxy

import (
	"net/url"
	"os"

	"golang.org/x/net/http/httpproxy"
)

// Resolver answers proxy lookups from a snapshot of proxy environment variables.
type Resolver struct {
	cfg       *httpproxy.Config
	proxyFunc func(*url.URL) (*url.URL, error)
}

// New builds a Resolver reading variables through getenv.
// Upper case names win over lower case ones, and ALL_PROXY fills in for a
// missing scheme-specific variable.
func New(getenv func(string) string) *Resolver {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := &httpproxy.Config{
		HTTPProxy:  getEnvAny(getenv, "HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy"),
		HTTPSProxy: getEnvAny(getenv, "HTTPS_PROXY", "https_proxy", "ALL_PROXY", "all_proxy"),
		NoProxy:    getEnvAny(getenv, "NO_PROXY", "no_proxy"),
		CGI:        getenv("REQUEST_METHOD") != "",
	}
	return &Resolver{
		cfg:       cfg,
		proxyFunc: cfg.ProxyFunc(),
	}
}

// FromEnvironment builds a Resolver from the live process environment.
func FromEnvironment() *Resolver {
	return New(os.Getenv)
}

// Config exposes the resolved variables, mostly for logging.
func (r *Resolver) Config() httpproxy.Config {
	return *r.cfg
}

// ProxyFor returns the proxy for target, or nil when the request should go direct.
func (r *Resolver) ProxyFor(target *url.URL) (*url.URL, error) {
	return r.proxyFunc(target)
}

// Live re-reads the process environment on every lookup, so changes made
// after startup are picked up.
type Live struct {
	getenv func(string) string
}

// NewLive returns a resolver bound to getenv (os.Getenv when nil).
func NewLive(getenv func(string) string) *Live {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Live{getenv: getenv}
}

func (l *Live) ProxyFor(target *url.URL) (*url.URL, error) {
	return New(l.getenv).ProxyFor(target)
}

func getEnvAny(getenv func(string) string, names ...string) string {
	for _, n := range names {
		if val := getenv(n); val != "" {
			return val
		}
	}
	return ""
}
