//go:build !darwin && !linux && !windows

package sysproxy

import (
	"context"
	"fmt"
	"runtime"

	"proxyscout/internal/shared/types"
)

func (q *Querier) query(_ context.Context) (*types.SystemProxy, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, runtime.GOOS)
}
