//go:build windows

package sysproxy

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"

	"proxyscout/internal/shared/types"
)

// Registry path: HKEY_CURRENT_USER\Software\Microsoft\Windows\CurrentVersion\Internet Settings
const internetSettingsKey = `Software\Microsoft\Windows\CurrentVersion\Internet Settings`

func (q *Querier) query(_ context.Context) (*types.SystemProxy, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, internetSettingsKey, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry key: %w", err)
	}
	defer k.Close()

	enable, _, err := k.GetIntegerValue("ProxyEnable")
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		return nil, fmt.Errorf("failed to read ProxyEnable: %w", err)
	}
	server, _, err := k.GetStringValue("ProxyServer")
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		return nil, fmt.Errorf("failed to read ProxyServer: %w", err)
	}
	override, _, err := k.GetStringValue("ProxyOverride")
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		q.log().Warn().Err(err).Msg("Failed to read ProxyOverride, ignoring bypass list.")
		override = ""
	}

	return fromRegistryValues(enable, server, override)
}
