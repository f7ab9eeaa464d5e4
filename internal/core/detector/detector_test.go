package detector

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"proxyscout/internal/shared/settings"
	"proxyscout/internal/shared/types"
)

// mockEnvResolver is a mock for the EnvResolver interface.
type mockEnvResolver struct {
	proxy   string
	err     error
	targets []string
	mu      sync.Mutex
}

func (m *mockEnvResolver) ProxyFor(target *url.URL) (*url.URL, error) {
	m.mu.Lock()
	m.targets = append(m.targets, target.String())
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.proxy == "" {
		return nil, nil
	}
	return url.Parse(m.proxy)
}

// mockSystemQuerier is a mock for the SystemQuerier interface.
type mockSystemQuerier struct {
	proxy *types.SystemProxy
	err   error
	calls int
	mu    sync.Mutex
}

func (m *mockSystemQuerier) Get(ctx context.Context) (*types.SystemProxy, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p := *m.proxy
	return &p, nil
}

func enabled(host string, port int) *types.SystemProxy {
	return &types.SystemProxy{Enabled: true, Host: host, Port: port}
}

func TestDetect_EnvironmentTakesPrecedence(t *testing.T) {
	env := &mockEnvResolver{proxy: "http://10.0.0.1:3128"}
	sys := &mockSystemQuerier{proxy: enabled("127.0.0.1", 7890)}
	d := New(env, sys, "")

	got, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got == nil || got.URL != "http://10.0.0.1:3128" || got.Source != types.SourceEnvironment {
		t.Fatalf("Detect = %+v, want environment proxy", got)
	}
	if sys.calls != 0 {
		t.Errorf("system settings were queried %d times, want 0", sys.calls)
	}
	if len(env.targets) != 1 || env.targets[0] != types.DefaultProbeURL {
		t.Errorf("environment probed with %v, want [%s]", env.targets, types.DefaultProbeURL)
	}
}

func TestDetect_EnvironmentWinsEvenIfSystemFails(t *testing.T) {
	d := New(&mockEnvResolver{proxy: "socks5://127.0.0.1:1080"}, &mockSystemQuerier{err: errors.New("boom")}, "")
	got, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got.String() != "socks5://127.0.0.1:1080" {
		t.Errorf("Detect = %q", got.String())
	}
}

func TestDetect_SystemDisabled(t *testing.T) {
	d := New(&mockEnvResolver{}, &mockSystemQuerier{proxy: &types.SystemProxy{Enabled: false, Host: "127.0.0.1", Port: 7890}}, "")
	got, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got != nil {
		t.Errorf("Detect = %+v, want no proxy", got)
	}
}

func TestDetect_SystemHTTP(t *testing.T) {
	d := New(&mockEnvResolver{}, &mockSystemQuerier{proxy: enabled("127.0.0.1", 7890)}, "")
	got, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got == nil || got.URL != "http://127.0.0.1:7890" || got.Source != types.SourceSystem {
		t.Errorf("Detect = %+v, want http://127.0.0.1:7890 from system", got)
	}
}

func TestDetect_SystemSOCKS(t *testing.T) {
	d := New(&mockEnvResolver{}, &mockSystemQuerier{proxy: enabled("socks-proxy.local", 1080)}, "")
	got, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got == nil || got.URL != "socks5://socks-proxy.local:1080" {
		t.Errorf("Detect = %+v, want socks5://socks-proxy.local:1080", got)
	}
}

func TestDetect_SystemError(t *testing.T) {
	d := New(&mockEnvResolver{}, &mockSystemQuerier{err: errors.New("registry unreadable")}, "")
	got, err := d.Detect(context.Background())
	if err == nil {
		t.Fatalf("Detect = %+v, want error", got)
	}
	if !errors.Is(err, ErrDetectionFailed) {
		t.Errorf("error %v does not match ErrDetectionFailed", err)
	}
	var detErr *DetectionError
	if !errors.As(err, &detErr) || detErr.Reason != "registry unreadable" {
		t.Errorf("unexpected error value: %#v", err)
	}
	if !strings.Contains(err.Error(), "registry unreadable") {
		t.Errorf("error message %q lacks the underlying reason", err.Error())
	}
}

func TestDetect_EnvironmentErrorFallsThrough(t *testing.T) {
	d := New(&mockEnvResolver{err: errors.New("bad env")}, &mockSystemQuerier{proxy: enabled("10.1.1.1", 8080)}, "")
	got, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got.String() != "http://10.1.1.1:8080" {
		t.Errorf("Detect = %q", got.String())
	}
}

func TestDetect_InvalidProbeFallsThrough(t *testing.T) {
	env := &mockEnvResolver{proxy: "http://10.0.0.1:3128"}
	d := New(env, &mockSystemQuerier{proxy: enabled("10.1.1.1", 8080)}, "http://[::1")
	got, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got.Source != types.SourceSystem {
		t.Errorf("Source = %s, want system", got.Source)
	}
	if len(env.targets) != 0 {
		t.Errorf("environment should not be consulted with an invalid probe, got %v", env.targets)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	d := New(&mockEnvResolver{}, &mockSystemQuerier{proxy: enabled("127.0.0.1", 7890)}, "")
	first, err1 := d.Detect(context.Background())
	second, err2 := d.Detect(context.Background())
	if err1 != nil || err2 != nil {
		t.Fatalf("Detect failed: %v / %v", err1, err2)
	}
	if *first != *second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestDetect_NotCached(t *testing.T) {
	sys := &mockSystemQuerier{proxy: enabled("127.0.0.1", 7890)}
	d := New(&mockEnvResolver{}, sys, "")
	for i := 0; i < 3; i++ {
		if _, err := d.Detect(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if sys.calls != 3 {
		t.Errorf("system queried %d times, want 3", sys.calls)
	}
}

func TestDetect_Concurrent(t *testing.T) {
	d := New(&mockEnvResolver{}, &mockSystemQuerier{proxy: enabled("127.0.0.1", 7890)}, "")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := d.Detect(context.Background())
			if err != nil || got.URL != "http://127.0.0.1:7890" {
				t.Errorf("Detect = %+v, %v", got, err)
			}
		}()
	}
	wg.Wait()
}

func TestDetectFor(t *testing.T) {
	env := &mockEnvResolver{}
	d := New(env, &mockSystemQuerier{proxy: enabled("127.0.0.1", 7890)}, "")

	got, err := d.DetectFor(context.Background(), "https://api.internal.corp/v1")
	if err != nil {
		t.Fatalf("DetectFor failed: %v", err)
	}
	if got.String() != "http://127.0.0.1:7890" {
		t.Errorf("DetectFor = %q", got.String())
	}
	if len(env.targets) != 1 || env.targets[0] != "https://api.internal.corp/v1" {
		t.Errorf("environment probed with %v", env.targets)
	}

	for _, bad := range []string{"::nope", "not-a-url", "/relative/path"} {
		if _, err := d.DetectFor(context.Background(), bad); err == nil || errors.Is(err, ErrDetectionFailed) {
			t.Errorf("DetectFor(%q) error = %v, want a plain target error", bad, err)
		}
	}
}

func TestSchemeFor(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1":         types.SchemeHTTP,
		"proxy.corp":        types.SchemeHTTP,
		"socks-proxy.local": types.SchemeSOCKS5,
		"mysocks":           types.SchemeSOCKS5,
		"SOCKS.corp":        types.SchemeHTTP,
	}
	for host, want := range tests {
		if got := SchemeFor(host); got != want {
			t.Errorf("SchemeFor(%q) = %s, want %s", host, got, want)
		}
	}
}

func TestOnSettingsUpdate(t *testing.T) {
	env := &mockEnvResolver{}
	d := New(env, &mockSystemQuerier{proxy: &types.SystemProxy{}}, "")

	if err := d.OnSettingsUpdate(settings.ModuleDetection, &settings.DetectionSettings{ProbeURL: "https://example.org"}); err != nil {
		t.Fatalf("OnSettingsUpdate failed: %v", err)
	}
	if d.ProbeURL() != "https://example.org" {
		t.Errorf("ProbeURL = %q", d.ProbeURL())
	}
	_, _ = d.Detect(context.Background())
	if env.targets[len(env.targets)-1] != "https://example.org" {
		t.Errorf("new probe was not used: %v", env.targets)
	}

	if err := d.OnSettingsUpdate(settings.ModuleDetection, &settings.DetectionSettings{}); err != nil {
		t.Fatalf("OnSettingsUpdate failed: %v", err)
	}
	if d.ProbeURL() != types.DefaultProbeURL {
		t.Errorf("empty probe should reset to default, got %q", d.ProbeURL())
	}

	if err := d.OnSettingsUpdate(settings.ModuleDetection, "wrong"); err == nil {
		t.Error("expected an error for a wrong payload type")
	}
	if err := d.OnSettingsUpdate(settings.ModuleLogging, &settings.LoggingSettings{}); err != nil {
		t.Errorf("other modules should be ignored, got %v", err)
	}
}

func TestDetect_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	d := New(&mockEnvResolver{}, &mockSystemQuerier{err: context.DeadlineExceeded}, "")
	_, err := d.Detect(ctx)
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, ErrDetectionFailed) {
		t.Errorf("error %v should wrap both the cause and ErrDetectionFailed", err)
	}
}
