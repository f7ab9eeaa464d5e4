package sysproxy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-ieproxy"

	"proxyscout/internal/shared/types"
)

// queryIEProxy reads the static proxy settings through go-ieproxy (System
// Configuration on macOS). The lookup itself cannot be cancelled, so only the
// wait for it is bounded by ctx.
func (q *Querier) queryIEProxy(ctx context.Context) (*types.SystemProxy, error) {
	result := make(chan ieproxy.ProxyConf, 1)
	go func() {
		result <- q.proxyConf()
	}()

	select {
	case conf := <-result:
		return fromStaticConf(conf.Static)
	case <-ctx.Done():
		return nil, fmt.Errorf("reading system proxy settings: %w", ctx.Err())
	}
}

// fromStaticConf picks the http entry, then https, then the unnamed
// all-protocol entry, then any remaining entry in name order.
func fromStaticConf(c ieproxy.StaticProxyConf) (*types.SystemProxy, error) {
	p := &types.SystemProxy{Bypass: splitNoProxy(c.NoProxy)}
	if !c.Active {
		return p, nil
	}

	order := []string{"http", "https", ""}
	var rest []string
	for proto := range c.Protocols {
		if proto != "http" && proto != "https" && proto != "" {
			rest = append(rest, proto)
		}
	}
	sort.Strings(rest)

	for _, proto := range append(order, rest...) {
		addr := strings.TrimSpace(c.Protocols[proto])
		if addr == "" {
			continue
		}
		host, port, err := splitHostPort(addr)
		if err != nil {
			return nil, err
		}
		p.Enabled = true
		p.Host = host
		p.Port = port
		return p, nil
	}
	return p, nil
}

func splitNoProxy(s string) []string {
	var out []string
	for _, item := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
