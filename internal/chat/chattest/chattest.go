// Package chattest - простые in-memory реализации сущностей chat для тестов.
package chattest

import (
	"slices"
	"sync"

	"github.com/EgorLis/chatbot/internal/chat"
)

type Service struct {
	IDValue   string
	NameValue string
	Proto     string
}

func (s *Service) ID() string       { return s.IDValue }
func (s *Service) Name() string     { return s.NameValue }
func (s *Service) Protocol() string { return s.Proto }

type Guild struct {
	IDValue   string
	NameValue string
	Svc       *Service
	Members   []string
}

func (g *Guild) ID() string                   { return g.IDValue }
func (g *Guild) Name() string                 { return g.NameValue }
func (g *Guild) Service() chat.Service        { return g.Svc }
func (g *Guild) HasMember(userID string) bool { return slices.Contains(g.Members, userID) }

type Channel struct {
	IDValue   string
	NameValue string
	Svc       *Service
	GuildRef  *Guild
	IsNSFW    bool
	FlagList  []string
	Members   []string
}

func (c *Channel) ID() string            { return c.IDValue }
func (c *Channel) Name() string          { return c.NameValue }
func (c *Channel) Service() chat.Service { return c.Svc }
func (c *Channel) Guild() chat.Guild {
	if c.GuildRef == nil {
		return nil
	}
	return c.GuildRef
}
func (c *Channel) NSFW() bool                   { return c.IsNSFW }
func (c *Channel) Flags() []string              { return c.FlagList }
func (c *Channel) HasMember(userID string) bool { return slices.Contains(c.Members, userID) }

type User struct {
	IDValue   string
	NameValue string
	Svc       *Service
	// Perms - глобальные права, ChannelPerms - права по id канала.
	Perms        []string
	ChannelPerms map[string][]string
}

func (u *User) ID() string            { return u.IDValue }
func (u *User) Name() string          { return u.NameValue }
func (u *User) Service() chat.Service { return u.Svc }
func (u *User) HasPermission(ch chat.Channel, perm string) bool {
	if slices.Contains(u.Perms, perm) {
		return true
	}
	if ch == nil {
		return false
	}
	return slices.Contains(u.ChannelPerms[ch.ID()], perm)
}

// Message запоминает все ответы.
type Message struct {
	Body     string
	Author   *User
	Chan     *Channel
	Svc      *Service
	ReplyErr error

	mu      sync.Mutex
	replies []string
}

func (m *Message) Text() string          { return m.Body }
func (m *Message) User() chat.User       { return m.Author }
func (m *Message) Service() chat.Service { return m.Svc }
func (m *Message) Channel() chat.Channel {
	if m.Chan == nil {
		return nil
	}
	return m.Chan
}

func (m *Message) Reply(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return m.ReplyErr
}

// Replies возвращает копию отправленных ответов.
func (m *Message) Replies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.replies)
}

// World - готовый набор: сервис irc, гильдия, канал #general, пользователь alice.
type World struct {
	Service *Service
	Guild   *Guild
	Channel *Channel
	User    *User
}

func NewWorld() *World {
	svc := &Service{IDValue: "libera", NameValue: "Libera", Proto: "irc"}
	g := &Guild{IDValue: "g1", NameValue: "Guild One", Svc: svc, Members: []string{"alice"}}
	ch := &Channel{IDValue: "#general", NameValue: "general", Svc: svc, GuildRef: g, Members: []string{"alice"}}
	u := &User{IDValue: "alice", NameValue: "Alice", Svc: svc}
	return &World{Service: svc, Guild: g, Channel: ch, User: u}
}

// Say создаёт сообщение от пользователя мира в канал мира.
func (w *World) Say(text string) *Message {
	return &Message{Body: text, Author: w.User, Chan: w.Channel, Svc: w.Service}
}

// Whisper создаёт личное сообщение (без канала).
func (w *World) Whisper(text string) *Message {
	return &Message{Body: text, Author: w.User, Svc: w.Service}
}
