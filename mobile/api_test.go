package mobile

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRecoverToError(t *testing.T) {
	fn := func() (err error) {
		defer recoverToError(&err, "boom")
		panic("kaboom")
	}
	err := fn()
	if err == nil || !strings.Contains(err.Error(), "go core panic in boom: kaboom") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigure_BadIni(t *testing.T) {
	if err := Configure("[detect\nprobe_url"); err == nil {
		t.Fatal("expected an error for malformed ini content")
	}
}

func TestGetSystemProxy_UsesEnvironment(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://10.20.30.40:3128")
	t.Setenv("NO_PROXY", "")
	if err := Configure("[log]\nlevel = error\n"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	defer Stop()

	got, err := GetSystemProxy()
	if err != nil {
		t.Fatalf("GetSystemProxy failed: %v", err)
	}
	if got != "http://10.20.30.40:3128" {
		t.Errorf("GetSystemProxy = %q", got)
	}

	raw, err := GetSystemProxyJSON()
	if err != nil {
		t.Fatalf("GetSystemProxyJSON failed: %v", err)
	}
	var body struct {
		Proxy  *string `json:"proxy"`
		Source string  `json:"source"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("bad JSON %q: %v", raw, err)
	}
	if body.Proxy == nil || *body.Proxy != got || body.Source != "environment" {
		t.Errorf("unexpected JSON: %s", raw)
	}
}

func TestUpdateSettings(t *testing.T) {
	if err := Configure("[log]\nlevel = error\n"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	defer Stop()

	if err := UpdateSettings("detection", `{"probe_url":"https://example.org"}`); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	err := UpdateSettings("nope", `{}`)
	if err == nil || !strings.Contains(err.Error(), "unknown settings module") {
		t.Errorf("expected unknown module error, got %v", err)
	}
}

func TestStatusAfterStop(t *testing.T) {
	if err := Configure("[log]\nlevel = error\n"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if err := Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := Start(); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if got := GetStatus(); got != "Running" {
		t.Errorf("status after Start = %q, want Running", got)
	}

	Stop()
	if got := GetStatus(); got != "Stopped" {
		t.Errorf("status after Stop = %q, want Stopped", got)
	}
}
