package globalstate

import (
	"sync"
)

// Service status strings shown by /api/status.
const (
	StatusInitializing = "Initializing..."
	StatusRunning      = "Running"
	StatusStopping     = "Stopping"
	StatusStopped      = "Stopped"
)

// StatusManager 结构体用于管理全局状态。
// 它使用 RWMutex 来保护对状态字符串的并发读写。
type StatusManager struct {
	mu     sync.RWMutex
	status string
}

// NewStatusManager returns a manager in StatusInitializing.
func NewStatusManager() *StatusManager {
	return &StatusManager{status: StatusInitializing}
}

// 全局的状态管理器实例
var GlobalStatus = NewStatusManager()

// Set 方法用于安全地更新状态。It reports whether the status changed.
func (sm *StatusManager) Set(newStatus string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	changed := sm.status != newStatus
	sm.status = newStatus
	return changed
}

// Get 方法用于安全地读取状态。
func (sm *StatusManager) Get() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.status
}
