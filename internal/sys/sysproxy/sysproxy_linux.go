//go:build linux

package sysproxy

import (
	"context"

	"proxyscout/internal/shared/types"
)

func (q *Querier) query(ctx context.Context) (*types.SystemProxy, error) {
	return q.queryDesktop(ctx)
}
