package bot

import "errors"

var (
	ErrDirty        = errors.New("bot is dirty, restart required")
	ErrNotLoaded    = errors.New("no configuration loaded")
	ErrRunning      = errors.New("bot is already running")
	ErrStartAborted = errors.New("configuration start aborted")
)
