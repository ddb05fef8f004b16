package chat

import "context"

type Service interface {
	ID() string
	Name() string
	// Protocol - тип протокола: "irc", "discord", "websocket", "console"...
	Protocol() string
}

type Guild interface {
	ID() string
	Name() string
	Service() Service
	HasMember(userID string) bool
}

type Channel interface {
	ID() string
	Name() string
	Service() Service
	// Guild может быть nil.
	Guild() Guild
	NSFW() bool
	Flags() []string
	HasMember(userID string) bool
}

type User interface {
	ID() string
	Name() string
	Service() Service
	// HasPermission проверяет право пользователя в канале; ch == nil - глобальные права.
	HasPermission(ch Channel, perm string) bool
}

type Message interface {
	Text() string
	User() User
	// Channel == nil для личных сообщений.
	Channel() Channel
	Service() Service
	Reply(text string) error
}

// Sink принимает входящие сообщения от адаптера.
type Sink func(Message)

// Adapter - протокольный адаптер. Run блокируется до отмены ctx или фатальной ошибки.
type Adapter interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}
