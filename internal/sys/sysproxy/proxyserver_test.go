package sysproxy

import "testing"

func TestParseProxyServer(t *testing.T) {
	tests := []struct {
		server  string
		host    string
		port    int
		wantErr bool
	}{
		{server: "127.0.0.1:7890", host: "127.0.0.1", port: 7890},
		{server: " proxy.corp:8080 ", host: "proxy.corp", port: 8080},
		{server: "http://proxy.corp:8080", host: "proxy.corp", port: 8080},
		{server: "[::1]:3128", host: "::1", port: 3128},
		{server: "http=10.0.0.1:80;https=10.0.0.2:443;socks=10.0.0.3:1080", host: "10.0.0.1", port: 80},
		{server: "https=10.0.0.2:443;ftp=10.0.0.4:21", host: "10.0.0.2", port: 443},
		{server: "socks=socks.lan:1080", host: "socks.lan", port: 1080},
		{server: "", wantErr: true},
		{server: "proxy.corp", wantErr: true},
		{server: "proxy.corp:99999", wantErr: true},
		{server: "http=;https=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			host, port, err := parseProxyServer(tt.server)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %s:%d", host, port)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseProxyServer failed: %v", err)
			}
			if host != tt.host || port != tt.port {
				t.Errorf("got %s:%d, want %s:%d", host, port, tt.host, tt.port)
			}
		})
	}
}

func TestFromRegistryValues(t *testing.T) {
	p, err := fromRegistryValues(1, "127.0.0.1:7890", "localhost;127.*;<local>")
	if err != nil {
		t.Fatalf("fromRegistryValues failed: %v", err)
	}
	if !p.Enabled || p.Host != "127.0.0.1" || p.Port != 7890 {
		t.Errorf("unexpected proxy: %+v", p)
	}
	assertBypass(t, p.Bypass, []string{"localhost", "127.*", "<local>"})

	p, err = fromRegistryValues(0, "127.0.0.1:7890", "")
	if err != nil {
		t.Fatalf("fromRegistryValues failed: %v", err)
	}
	if p.Enabled {
		t.Errorf("ProxyEnable=0 should be disabled, got %+v", p)
	}

	p, err = fromRegistryValues(1, "", "")
	if err != nil || p.Enabled {
		t.Errorf("empty ProxyServer should be disabled, got %+v, %v", p, err)
	}

	if _, err := fromRegistryValues(1, "garbage", ""); err == nil {
		t.Error("expected an error for a malformed ProxyServer")
	}
	if p, err := fromRegistryValues(1, "127.0.0.1:0", ""); err == nil {
		t.Errorf("expected an error for port 0, got %+v", p)
	}
}
