package dispatch

import "errors"

// ErrPatternGroups - в шаблоне вызова нет именованных групп alias и argument.
var ErrPatternGroups = errors.New("invocation pattern must define named groups alias and argument")
