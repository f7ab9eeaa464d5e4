package sysproxy

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"proxyscout/internal/shared/types"
)

const (
	gnomeProxySchema = "org.gnome.system.proxy"
	kdeProxySection  = "Proxy Settings"
	kdeManualProxy   = "1"
)

// queryDesktop reads the proxy from the Linux desktop environment. KDE
// sessions try kioslaverc first; every other session starts with GNOME.
func (q *Querier) queryDesktop(ctx context.Context) (*types.SystemProxy, error) {
	order := []struct {
		name  string
		query func(context.Context) (*types.SystemProxy, error)
	}{
		{"gnome", q.queryGnome},
		{"kde", q.queryKDE},
	}
	if strings.Contains(strings.ToUpper(q.getenv("XDG_CURRENT_DESKTOP")), "KDE") {
		order[0], order[1] = order[1], order[0]
	}

	var errs []string
	for _, o := range order {
		p, err := o.query(ctx)
		if err == nil {
			return p, nil
		}
		q.log().Debug().Err(err).Str("desktop", o.name).Msg("Desktop proxy settings unavailable.")
		errs = append(errs, fmt.Sprintf("%s: %v", o.name, err))
	}
	return nil, fmt.Errorf("no desktop proxy settings found (%s)", strings.Join(errs, "; "))
}

func (q *Querier) gsettings(ctx context.Context, schema, key string) (string, error) {
	out, err := q.runCommand(ctx, "gsettings", "get", schema, key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// queryGnome reads org.gnome.system.proxy through gsettings.
// Only mode 'manual' counts as enabled.
func (q *Querier) queryGnome(ctx context.Context) (*types.SystemProxy, error) {
	mode, err := q.gsettings(ctx, gnomeProxySchema, "mode")
	if err != nil {
		return nil, err
	}

	p := &types.SystemProxy{}
	if ignore, err := q.gsettings(ctx, gnomeProxySchema, "ignore-hosts"); err == nil {
		p.Bypass = parseGVariantStringList(ignore)
	}
	if parseGVariantString(mode) != "manual" {
		return p, nil
	}

	for _, sub := range []string{"http", "https"} {
		schema := gnomeProxySchema + "." + sub
		host, err := q.gsettings(ctx, schema, "host")
		if err != nil {
			return nil, err
		}
		host = parseGVariantString(host)
		if host == "" {
			continue
		}
		portStr, err := q.gsettings(ctx, schema, "port")
		if err != nil {
			return nil, err
		}
		port, err := parsePort(parseGVariantInt(portStr))
		if err != nil {
			return nil, err
		}
		p.Enabled = true
		p.Host = host
		p.Port = port
		return p, nil
	}
	// manual 模式但没有配置任何主机
	return p, nil
}

// parseGVariantString unquotes a gsettings string such as 'manual'.
func parseGVariantString(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}

// parseGVariantInt strips an optional type annotation such as "uint32 8080".
func parseGVariantInt(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// parseGVariantStringList parses "['localhost', '127.0.0.0/8']" and "@as []".
func parseGVariantStringList(s string) []string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@as"))
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	var out []string
	for _, item := range strings.Split(s, ",") {
		if v := parseGVariantString(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (q *Querier) kioslavercPath() (string, error) {
	if dir := q.getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "kioslaverc"), nil
	}
	home, err := q.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kioslaverc"), nil
}

// queryKDE reads [Proxy Settings] from kioslaverc.
func (q *Querier) queryKDE(_ context.Context) (*types.SystemProxy, error) {
	path, err := q.kioslavercPath()
	if err != nil {
		return nil, err
	}
	data, err := q.readFile(path)
	if err != nil {
		return nil, err
	}
	return parseKioslaverc(data)
}

// parseKioslaverc understands ProxyType=1 (manual) with httpProxy/httpsProxy
// values written either as "http://host port" or "host:port".
func parseKioslaverc(data []byte) (*types.SystemProxy, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kioslaverc: %w", err)
	}
	sec, err := cfg.GetSection(kdeProxySection)
	if err != nil {
		return nil, fmt.Errorf("kioslaverc has no [%s] section", kdeProxySection)
	}

	p := &types.SystemProxy{}
	if noProxy := sec.Key("NoProxyFor").String(); noProxy != "" {
		for _, item := range strings.Split(noProxy, ",") {
			if item = strings.TrimSpace(item); item != "" {
				p.Bypass = append(p.Bypass, item)
			}
		}
	}
	if strings.TrimSpace(sec.Key("ProxyType").String()) != kdeManualProxy {
		return p, nil
	}

	for _, key := range []string{"httpProxy", "httpsProxy"} {
		value := strings.TrimSpace(sec.Key(key).String())
		if value == "" {
			continue
		}
		host, port, err := parseKDEProxyValue(value)
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

func parseKDEProxyValue(value string) (string, int, error) {
	rest := stripScheme(value)
	if fields := strings.Fields(rest); len(fields) == 2 {
		port, err := parsePort(fields[1])
		if err != nil {
			return "", 0, err
		}
		return fields[0], port, nil
	}
	return splitHostPort(rest)
}
