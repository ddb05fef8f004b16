package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/selector"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunUntilEOF(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("!echo hi\n\n   hello  \n"), &out)

	var seen []string
	err := c.Run(context.Background(), func(msg chat.Message) {
		seen = append(seen, msg.Text())
		require.NoError(t, msg.Reply("got "+msg.Text()))
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"!echo hi", "hello"}, seen)
	assert.Equal(t, "[bot] got !echo hi\n[bot] got hello\n", out.String())
}

func TestRunCancel(t *testing.T) {
	pr, pw := io.Pipe()
	c := New(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx, func(chat.Message) {}) }()

	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)
	require.NoError(t, pw.Close())
}

func TestOperatorSubject(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard)
	msg := &message{console: c, text: "x"}

	assert.Equal(t, "console", c.Name())
	assert.True(t, msg.User().HasPermission(msg.Channel(), "admin"))
	assert.Nil(t, msg.Channel().Guild())

	s := chat.OfMessage(msg)
	assert.True(t, selector.Protocol("console").Match(s))
	assert.True(t, selector.Visible("operator").Match(s))
	assert.False(t, selector.NSFW(true).Match(s))
}
