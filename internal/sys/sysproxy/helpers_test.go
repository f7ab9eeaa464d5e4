package sysproxy

import (
	"context"
	"errors"
	"io/fs"
	"reflect"
	"strings"
	"testing"
)

// fakeRunner answers "gsettings get <schema> <key>" style invocations from a map
// keyed by the joined argument list.
type fakeRunner struct {
	outputs map[string]string
	calls   []string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	out, ok := f.outputs[key]
	if !ok {
		return nil, errors.New(key + ": exec: not found")
	}
	return []byte(out), nil
}

func newTestQuerier(runner *fakeRunner, env map[string]string, files map[string]string) *Querier {
	return &Querier{
		runCommand: runner.run,
		readFile: func(name string) ([]byte, error) {
			if data, ok := files[name]; ok {
				return []byte(data), nil
			}
			return nil, fs.ErrNotExist
		},
		getenv:  func(k string) string { return env[k] },
		homeDir: func() (string, error) { return "/home/tester", nil },
	}
}

func assertBypass(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Bypass = %v, want %v", got, want)
	}
}
