package selector

import (
	"regexp"
	"slices"
	"strings"

	"github.com/EgorLis/chatbot/internal/chat"
)

type Selector interface {
	Match(s chat.Subject) bool
}

// Func позволяет использовать функцию как Selector.
type Func func(chat.Subject) bool

func (f Func) Match(s chat.Subject) bool { return f(s) }

// ---------- проекции ----------

func onService(s chat.Subject, pred func(chat.Service) bool) bool {
	if !s.Derives(chat.KindService) {
		return true
	}
	v := s.Service()
	if v == nil {
		return false
	}
	return pred(v)
}

func onGuild(s chat.Subject, pred func(chat.Guild) bool) bool {
	if !s.Derives(chat.KindGuild) {
		return true
	}
	v := s.Guild()
	if v == nil {
		return false
	}
	return pred(v)
}

func onChannel(s chat.Subject, pred func(chat.Channel) bool) bool {
	if !s.Derives(chat.KindChannel) {
		return true
	}
	v := s.Channel()
	if v == nil {
		return false
	}
	return pred(v)
}

func onUser(s chat.Subject, pred func(chat.User) bool) bool {
	if !s.Derives(chat.KindUser) {
		return true
	}
	v := s.User()
	if v == nil {
		return false
	}
	return pred(v)
}

func onMessage(s chat.Subject, pred func(chat.Message) bool) bool {
	if !s.Derives(chat.KindMessage) {
		return true
	}
	v := s.Message()
	if v == nil {
		return false
	}
	return pred(v)
}

// ---------- all / and / or ----------

type all struct{}

// All принимает всё.
func All() Selector { return all{} }

func (all) Match(chat.Subject) bool { return true }

type and []Selector

// And - конъюнкция; вычисление останавливается на первом false.
func And(sels ...Selector) Selector { return and(sels) }

func (a and) Match(s chat.Subject) bool {
	for _, sel := range a {
		if !sel.Match(s) {
			return false
		}
	}
	return true
}

type or []Selector

// Or - дизъюнкция; вычисление останавливается на первом true.
func Or(sels ...Selector) Selector { return or(sels) }

func (o or) Match(s chat.Subject) bool {
	for _, sel := range o {
		if sel.Match(s) {
			return true
		}
	}
	return false
}

// ---------- match ----------

// Field - поле, по которому работает match.
type Field string

const (
	FieldService     Field = "service"
	FieldServiceName Field = "service_name"
	FieldGuild       Field = "guild"
	FieldGuildName   Field = "guild_name"
	FieldChannel     Field = "channel"
	FieldChannelName Field = "channel_name"
	FieldUser        Field = "user"
	FieldUserName    Field = "user_name"
	FieldText        Field = "text"
)

func (f Field) valid() bool {
	switch f {
	case FieldService, FieldServiceName, FieldGuild, FieldGuildName,
		FieldChannel, FieldChannelName, FieldUser, FieldUserName, FieldText:
		return true
	}
	return false
}

type match struct {
	field Field
	value string
	re    *regexp.Regexp
}

// Literal сравнивает поле со строкой.
func Literal(f Field, value string) Selector { return &match{field: f, value: value} }

// Pattern требует полного совпадения поля с регуляркой.
func Pattern(f Field, re *regexp.Regexp) Selector { return &match{field: f, re: re} }

func (m *match) test(v string) bool {
	if m.re != nil {
		return m.re.MatchString(v)
	}
	return v == m.value
}

func (m *match) Match(s chat.Subject) bool {
	switch m.field {
	case FieldService:
		return onService(s, func(v chat.Service) bool { return m.test(v.ID()) })
	case FieldServiceName:
		return onService(s, func(v chat.Service) bool { return m.test(v.Name()) })
	case FieldGuild:
		return onGuild(s, func(v chat.Guild) bool { return m.test(v.ID()) })
	case FieldGuildName:
		return onGuild(s, func(v chat.Guild) bool { return m.test(v.Name()) })
	case FieldChannel:
		return onChannel(s, func(v chat.Channel) bool { return m.test(v.ID()) })
	case FieldChannelName:
		return onChannel(s, func(v chat.Channel) bool { return m.test(v.Name()) })
	case FieldUser:
		return onUser(s, func(v chat.User) bool { return m.test(v.ID()) })
	case FieldUserName:
		return onUser(s, func(v chat.User) bool { return m.test(v.Name()) })
	case FieldText:
		return onMessage(s, func(v chat.Message) bool { return m.test(v.Text()) })
	}
	return false
}

// ---------- protocol / permission / flag / nsfw / visible / id ----------

type protocol string

// Protocol проверяет тип протокола сервиса (без учёта регистра).
func Protocol(name string) Selector { return protocol(name) }

func (p protocol) Match(s chat.Subject) bool {
	return onService(s, func(v chat.Service) bool { return strings.EqualFold(v.Protocol(), string(p)) })
}

type permission string

// Permission проверяет право автора. Для сообщения - в его канале,
// для пользователя - глобально.
func Permission(perm string) Selector { return permission(perm) }

func (p permission) Match(s chat.Subject) bool {
	if m := s.Message(); m != nil {
		u := m.User()
		if u == nil {
			return false
		}
		return u.HasPermission(m.Channel(), string(p))
	}
	return onUser(s, func(u chat.User) bool { return u.HasPermission(nil, string(p)) })
}

type flag string

// Flag проверяет флаг канала.
func Flag(name string) Selector { return flag(name) }

func (f flag) Match(s chat.Subject) bool {
	return onChannel(s, func(ch chat.Channel) bool { return slices.Contains(ch.Flags(), string(f)) })
}

type nsfw bool

// NSFW сравнивает признак канала с want. Личные сообщения считаются не-NSFW.
func NSFW(want bool) Selector { return nsfw(want) }

func (n nsfw) Match(s chat.Subject) bool {
	if !s.Derives(chat.KindChannel) {
		return true
	}
	ch := s.Channel()
	if ch == nil {
		return !bool(n)
	}
	return ch.NSFW() == bool(n)
}

type visible string

// Visible проверяет, что пользователь userID видит канал (или гильдию).
func Visible(userID string) Selector { return visible(userID) }

func (v visible) Match(s chat.Subject) bool {
	if s.Kind() == chat.KindGuild {
		return s.Guild().HasMember(string(v))
	}
	return onChannel(s, func(ch chat.Channel) bool { return ch.HasMember(string(v)) })
}

type identifier struct {
	kind chat.Kind
	id   string
}

// ID сравнивает идентификатор сущности kind. Для KindMessage всегда false.
func ID(kind chat.Kind, id string) Selector { return identifier{kind: kind, id: id} }

func (i identifier) Match(s chat.Subject) bool {
	eq := func(v string) bool { return v == i.id }
	switch i.kind {
	case chat.KindService:
		return onService(s, func(v chat.Service) bool { return eq(v.ID()) })
	case chat.KindGuild:
		return onGuild(s, func(v chat.Guild) bool { return eq(v.ID()) })
	case chat.KindChannel:
		return onChannel(s, func(v chat.Channel) bool { return eq(v.ID()) })
	case chat.KindUser:
		return onUser(s, func(v chat.User) bool { return eq(v.ID()) })
	}
	return false
}
