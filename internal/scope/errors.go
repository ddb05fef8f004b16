package scope

import (
	"errors"
	"fmt"
)

// Структурные ошибки конфига, оборачиваются в *ConfigError.
var (
	ErrCycle                 = errors.New("group include cycle")
	ErrUnknownGroup          = errors.New("unknown group")
	ErrDuplicateGroup        = errors.New("duplicate group")
	ErrUnknownListener       = errors.New("unknown listener reference")
	ErrDuplicateListener     = errors.New("duplicate listener name in group")
	ErrUnknownImplementation = errors.New("unknown listener implementation")
	ErrAliasNotCommand       = errors.New("aliases given for a listener that is not a command")
	ErrInvalidAnchor         = errors.New("invalid listener anchor")
	ErrStaticConfig          = errors.New("invalid static listener config")
	ErrInvalidMapping        = errors.New("invalid scope mapping")
)

// ErrBadState - метод жизненного цикла вызван не в том состоянии.
var ErrBadState = errors.New("invalid listener state transition")

// ConfigError - структурная ошибка загрузки конфигурации. Загрузка
// отменяется целиком, старая конфигурация остаётся в силе.
type ConfigError struct {
	Group    string
	Listener string
	Err      error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Group != "" && e.Listener != "":
		return fmt.Sprintf("config: group %q, listener %q: %v", e.Group, e.Listener, e.Err)
	case e.Group != "":
		return fmt.Sprintf("config: group %q: %v", e.Group, e.Err)
	default:
		return fmt.Sprintf("config: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ListenerError - ожидаемая, восстановимая ошибка слушателя (кривой
// конфиг слушателя, кривой ввод пользователя). Глобальное состояние не портит.
type ListenerError struct {
	Msg string
	Err error
}

func (e *ListenerError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ListenerError) Unwrap() error { return e.Err }

func ListenerErrorf(format string, args ...any) error {
	return &ListenerError{Msg: fmt.Sprintf(format, args...)}
}

// WrapListenerError помечает err как ожидаемую ошибку слушателя.
func WrapListenerError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ListenerError{Msg: msg, Err: err}
}

// IsListenerError: err (или что-то в его цепочке) - *ListenerError.
func IsListenerError(err error) bool {
	var le *ListenerError
	return errors.As(err, &le)
}

// PanicError - паника, пойманная в колбэке слушателя.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panic: %v", e.Value)
}
