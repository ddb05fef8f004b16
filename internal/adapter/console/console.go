// Package console - построчный адаптер: сообщения читаются из io.Reader,
// ответы пишутся в io.Writer. Оператор консоли имеет все права.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/EgorLis/chatbot/internal/chat"
)

const replyPrefix = "[bot] "

type Console struct {
	in   io.Reader
	mu   sync.Mutex
	out  io.Writer
	svc  *service
	user *operator
	ch   *channel
}

func New(in io.Reader, out io.Writer) *Console {
	svc := &service{}
	return &Console{
		in:   in,
		out:  out,
		svc:  svc,
		user: &operator{svc: svc},
		ch:   &channel{svc: svc},
	}
}

func (c *Console) Name() string { return "console" }

// Run читает строки до EOF (возвращает nil) или отмены ctx.
// Сообщения обрабатываются по одному, в порядке ввода.
func (c *Console) Run(ctx context.Context, sink chat.Sink) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case line := <-lines:
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			sink(&message{console: c, text: text})
		}
	}
}

func (c *Console) write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, replyPrefix+text)
	return err
}

type service struct{}

func (*service) ID() string       { return "console" }
func (*service) Name() string     { return "Console" }
func (*service) Protocol() string { return "console" }

type channel struct{ svc *service }

func (c *channel) ID() string               { return "console" }
func (c *channel) Name() string             { return "console" }
func (c *channel) Service() chat.Service    { return c.svc }
func (c *channel) Guild() chat.Guild        { return nil }
func (c *channel) NSFW() bool               { return false }
func (c *channel) Flags() []string          { return nil }
func (c *channel) HasMember(id string) bool { return id == "operator" }

type operator struct{ svc *service }

func (u *operator) ID() string                              { return "operator" }
func (u *operator) Name() string                            { return "operator" }
func (u *operator) Service() chat.Service                   { return u.svc }
func (u *operator) HasPermission(chat.Channel, string) bool { return true }

type message struct {
	console *Console
	text    string
}

func (m *message) Text() string            { return m.text }
func (m *message) User() chat.User         { return m.console.user }
func (m *message) Channel() chat.Channel   { return m.console.ch }
func (m *message) Service() chat.Service   { return m.console.svc }
func (m *message) Reply(text string) error { return m.console.write(text) }
