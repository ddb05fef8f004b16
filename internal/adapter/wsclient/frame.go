package wsclient

import (
	"slices"

	"github.com/EgorLis/chatbot/internal/chat"
)

const (
	frameMessage = "message"
	frameSend    = "send"
	frameAck     = "ack"
)

type inFrame struct {
	Type    string        `json:"type"`
	Seq     uint32        `json:"seq,omitempty"`
	Error   string        `json:"error,omitempty"`
	ID      string        `json:"id,omitempty"`
	Text    string        `json:"text,omitempty"`
	User    *userFrame    `json:"user,omitempty"`
	Channel *channelFrame `json:"channel,omitempty"`
}

type userFrame struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Permissions []string            `json:"permissions,omitempty"`
	ChannelPerm map[string][]string `json:"channel_permissions,omitempty"`
}

type channelFrame struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	NSFW    bool        `json:"nsfw,omitempty"`
	Flags   []string    `json:"flags,omitempty"`
	Members []string    `json:"members,omitempty"`
	Guild   *guildFrame `json:"guild,omitempty"`
}

type guildFrame struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

type outFrame struct {
	Type    string `json:"type"`
	Seq     uint32 `json:"seq"`
	ReplyTo string `json:"reply_to,omitempty"`
	Channel string `json:"channel,omitempty"`
	User    string `json:"user,omitempty"`
	Text    string `json:"text"`
}

// ---------- сущности chat ----------

type service struct {
	id, name, protocol string
}

func (s *service) ID() string       { return s.id }
func (s *service) Name() string     { return s.name }
func (s *service) Protocol() string { return s.protocol }

type guild struct {
	f   *guildFrame
	svc *service
}

func (g *guild) ID() string                   { return g.f.ID }
func (g *guild) Name() string                 { return g.f.Name }
func (g *guild) Service() chat.Service        { return g.svc }
func (g *guild) HasMember(userID string) bool { return slices.Contains(g.f.Members, userID) }

type channel struct {
	f   *channelFrame
	svc *service
}

func (c *channel) ID() string            { return c.f.ID }
func (c *channel) Name() string          { return c.f.Name }
func (c *channel) Service() chat.Service { return c.svc }
func (c *channel) Guild() chat.Guild {
	if c.f.Guild == nil {
		return nil
	}
	return &guild{f: c.f.Guild, svc: c.svc}
}
func (c *channel) NSFW() bool                   { return c.f.NSFW }
func (c *channel) Flags() []string              { return c.f.Flags }
func (c *channel) HasMember(userID string) bool { return slices.Contains(c.f.Members, userID) }

type user struct {
	f   *userFrame
	svc *service
}

func (u *user) ID() string            { return u.f.ID }
func (u *user) Name() string          { return u.f.Name }
func (u *user) Service() chat.Service { return u.svc }
func (u *user) HasPermission(ch chat.Channel, perm string) bool {
	if slices.Contains(u.f.Permissions, perm) {
		return true
	}
	if ch == nil {
		return false
	}
	return slices.Contains(u.f.ChannelPerm[ch.ID()], perm)
}

type message struct {
	client *Client
	id     string
	text   string
	user   *user
	ch     *channel
}

func (m *message) Text() string          { return m.text }
func (m *message) User() chat.User       { return m.user }
func (m *message) Service() chat.Service { return m.client.svc }
func (m *message) Channel() chat.Channel {
	if m.ch == nil {
		return nil
	}
	return m.ch
}

// Reply отвечает в тот же канал, а в личке - автору.
func (m *message) Reply(text string) error {
	f := &outFrame{Type: frameSend, ReplyTo: m.id, Text: text}
	if m.ch != nil {
		f.Channel = m.ch.f.ID
	} else {
		f.User = m.user.f.ID
	}
	return m.client.sendAwait(f)
}

func (c *Client) message(f *inFrame) *message {
	m := &message{client: c, id: f.ID, text: f.Text}
	uf := f.User
	if uf == nil {
		uf = &userFrame{}
	}
	m.user = &user{f: uf, svc: c.svc}
	if f.Channel != nil {
		m.ch = &channel{f: f.Channel, svc: c.svc}
	}
	return m
}
