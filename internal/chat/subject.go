package chat

import "fmt"

// Kind - вариант Subject.
type Kind uint8

const (
	KindMessage Kind = iota
	KindUser
	KindChannel
	KindService
	KindGuild
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindUser:
		return "user"
	case KindChannel:
		return "channel"
	case KindService:
		return "service"
	case KindGuild:
		return "guild"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind переводит имя варианта в Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "message":
		return KindMessage, true
	case "user":
		return KindUser, true
	case "channel":
		return KindChannel, true
	case "service":
		return KindService, true
	case "guild":
		return KindGuild, true
	}
	return 0, false
}

// Subject - то, против чего вычисляется селектор. Заполнено ровно одно поле,
// соответствующее Kind.
type Subject struct {
	kind    Kind
	message Message
	user    User
	channel Channel
	service Service
	guild   Guild
}

func OfMessage(m Message) Subject { return Subject{kind: KindMessage, message: m} }
func OfUser(u User) Subject       { return Subject{kind: KindUser, user: u} }
func OfChannel(c Channel) Subject { return Subject{kind: KindChannel, channel: c} }
func OfService(s Service) Subject { return Subject{kind: KindService, service: s} }
func OfGuild(g Guild) Subject     { return Subject{kind: KindGuild, guild: g} }

func (s Subject) Kind() Kind { return s.kind }

// Message возвращает сообщение, если Subject - сообщение.
func (s Subject) Message() Message {
	if s.kind == KindMessage {
		return s.message
	}
	return nil
}

// User: Message→User, User→User; иначе nil.
func (s Subject) User() User {
	switch s.kind {
	case KindMessage:
		return s.message.User()
	case KindUser:
		return s.user
	}
	return nil
}

// Channel: Message→Channel (nil для ЛС), Channel→Channel; иначе nil.
func (s Subject) Channel() Channel {
	switch s.kind {
	case KindMessage:
		return s.message.Channel()
	case KindChannel:
		return s.channel
	}
	return nil
}

// Guild: через канал для Message/Channel, сам Guild; иначе nil.
func (s Subject) Guild() Guild {
	switch s.kind {
	case KindMessage, KindChannel:
		if ch := s.Channel(); ch != nil {
			return ch.Guild()
		}
		return nil
	case KindGuild:
		return s.guild
	}
	return nil
}

// Service есть у любого варианта.
func (s Subject) Service() Service {
	switch s.kind {
	case KindMessage:
		return s.message.Service()
	case KindUser:
		return s.user.Service()
	case KindChannel:
		return s.channel.Service()
	case KindService:
		return s.service
	case KindGuild:
		return s.guild.Service()
	}
	return nil
}

// Derives сообщает, можно ли спроецировать s на вариант k. Для канала
// выводятся Channel, Guild и Service, но не Message и не User. Сама проекция
// при этом может оказаться nil (у ЛС нет канала).
func (s Subject) Derives(k Kind) bool {
	switch s.kind {
	case KindMessage:
		return true
	case KindChannel:
		return k == KindChannel || k == KindGuild || k == KindService
	case KindUser:
		return k == KindUser || k == KindService
	case KindGuild:
		return k == KindGuild || k == KindService
	case KindService:
		return k == KindService
	}
	return false
}
