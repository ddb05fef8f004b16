package bot

import (
	"sync"

	"go.uber.org/zap"
)

// Health - состояние здоровья бота. Единственный мутатор - MarkDirty;
// обратного перехода нет.
type Health struct {
	mu     sync.RWMutex
	dirty  bool
	reason string
	log    *zap.Logger
}

func newHealth(log *zap.Logger) *Health {
	return &Health{log: log}
}

// MarkDirty переводит бота в dirty. Повторные вызовы только логируются.
func (h *Health) MarkDirty(reason string, err error) {
	h.mu.Lock()
	first := !h.dirty
	if first {
		h.dirty = true
		h.reason = reason
	}
	h.mu.Unlock()

	if first {
		h.log.Error("bot is now dirty: data integrity is no longer guaranteed, restart required",
			zap.String("reason", reason), zap.Error(err))
		return
	}
	h.log.Error("unexpected failure while dirty", zap.String("reason", reason), zap.Error(err))
}

func (h *Health) Dirty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dirty
}

// Reason - причина первого перехода в dirty.
func (h *Health) Reason() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.reason
}
