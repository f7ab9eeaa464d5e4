package types

import (
	"net"
	"strconv"
)

// ProxySource 标记代理地址的来源
type ProxySource string

const (
	SourceEnvironment ProxySource = "environment"
	SourceSystem      ProxySource = "system"
)

// Proxy schemes reported to the host application.
const (
	SchemeHTTP   = "http"
	SchemeSOCKS5 = "socks5"
)

// SystemProxy is the OS-level proxy configuration as reported by the platform
// (Windows registry, macOS System Configuration, Linux desktop settings).
type SystemProxy struct {
	Enabled bool     `json:"enabled"`
	Host    string   `json:"host"`
	Port    int      `json:"port"`
	Bypass  []string `json:"bypass,omitempty"`
}

// Address returns host:port, bracketing IPv6 literals.
func (p *SystemProxy) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// DetectedProxy is the outcome of a successful detection.
type DetectedProxy struct {
	URL    string      `json:"proxy"`
	Source ProxySource `json:"source"`
}

func (p *DetectedProxy) String() string {
	if p == nil {
		return ""
	}
	return p.URL
}
