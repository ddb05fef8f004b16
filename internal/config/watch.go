package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher следит за файлом конфига и зовёт onChange после серии правок.
// Смотрим на каталог, а не на сам файл: редакторы часто пишут во
// временный файл и переименовывают его поверх.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *zap.Logger
	w        *fsnotify.Watcher
}

func NewWatcher(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{path: abs, debounce: debounce, log: log.Named("watch"), w: w}, nil
}

// Run блокируется до отмены ctx. onChange вызывается из этой же горутины.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.w.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("config changed", zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", zap.Error(err))

		case <-timer.C:
			onChange()
		}
	}
}
