package sysproxy

import (
	"fmt"
	"strings"

	"proxyscout/internal/shared/types"
)

// parseProxyServer parses the WinINet ProxyServer value. It is either a
// single "host:port" used for every protocol, or a per-protocol list such as
// "http=host:port;https=host:port;socks=host:port". The http entry wins,
// then https, then the first entry listed.
func parseProxyServer(server string) (string, int, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return "", 0, fmt.Errorf("empty proxy server")
	}
	if !strings.Contains(server, "=") {
		return splitHostPort(server)
	}

	entries := make(map[string]string)
	var first string
	for _, part := range strings.Split(server, ";") {
		proto, addr, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		proto = strings.ToLower(strings.TrimSpace(proto))
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if first == "" {
			first = addr
		}
		if _, seen := entries[proto]; !seen {
			entries[proto] = addr
		}
	}
	for _, proto := range []string{"http", "https"} {
		if addr, ok := entries[proto]; ok {
			return splitHostPort(addr)
		}
	}
	if first == "" {
		return "", 0, fmt.Errorf("no usable entry in proxy server %q", server)
	}
	return splitHostPort(first)
}

// parseProxyOverride splits the ";"-separated ProxyOverride bypass list.
func parseProxyOverride(override string) []string {
	var out []string
	for _, item := range strings.Split(override, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// fromRegistryValues assembles the result from the Internet Settings values.
func fromRegistryValues(enable uint64, server, override string) (*types.SystemProxy, error) {
	p := &types.SystemProxy{Bypass: parseProxyOverride(override)}
	if enable == 0 || strings.TrimSpace(server) == "" {
		return p, nil
	}
	host, port, err := parseProxyServer(server)
	if err != nil {
		return nil, err
	}
	p.Enabled = true
	p.Host = host
	p.Port = port
	return p, nil
}
