package selector

import "errors"

var (
	// ErrUnknownKind - в Spec указан неизвестный вид селектора.
	ErrUnknownKind = errors.New("unknown selector kind")

	// ErrInvalidParams - параметры селектора не разобрались.
	ErrInvalidParams = errors.New("invalid selector params")
)
