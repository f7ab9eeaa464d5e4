package globalstate

import "testing"

func TestStatusManager(t *testing.T) {
	sm := NewStatusManager()
	if sm.Get() != StatusInitializing {
		t.Fatalf("initial status = %q", sm.Get())
	}
	if !sm.Set(StatusRunning) {
		t.Error("Set should report a change")
	}
	if sm.Set(StatusRunning) {
		t.Error("Set with the same status should not report a change")
	}
	if sm.Get() != StatusRunning {
		t.Errorf("status = %q, want %q", sm.Get(), StatusRunning)
	}
}
