package selector

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/chat/chattest"
)

func subjects(w *chattest.World) map[string]chat.Subject {
	return map[string]chat.Subject{
		"message": chat.OfMessage(w.Say("hi")),
		"dm":      chat.OfMessage(w.Whisper("hi")),
		"user":    chat.OfUser(w.User),
		"channel": chat.OfChannel(w.Channel),
		"service": chat.OfService(w.Service),
		"guild":   chat.OfGuild(w.Guild),
	}
}

func constant(v bool) Selector { return Func(func(chat.Subject) bool { return v }) }

func exploding(t *testing.T) Selector {
	return Func(func(chat.Subject) bool {
		t.Fatal("selector must not be evaluated")
		return false
	})
}

func TestAndOr(t *testing.T) {
	s := chat.OfMessage(chattest.NewWorld().Say("x"))

	cases := []struct {
		vals    []bool
		and, or bool
	}{
		{[]bool{true}, true, true},
		{[]bool{false}, false, false},
		{[]bool{true, true, true}, true, true},
		{[]bool{true, false, true}, false, true},
		{[]bool{false, false}, false, false},
	}
	for _, tc := range cases {
		sels := make([]Selector, len(tc.vals))
		for i, v := range tc.vals {
			sels[i] = constant(v)
		}
		assert.Equal(t, tc.and, And(sels...).Match(s), "and %v", tc.vals)
		assert.Equal(t, tc.or, Or(sels...).Match(s), "or %v", tc.vals)
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	s := chat.OfMessage(chattest.NewWorld().Say("x"))

	assert.False(t, And(constant(false), exploding(t)).Match(s))
	assert.True(t, Or(constant(true), exploding(t)).Match(s))
}

func TestFieldProjections(t *testing.T) {
	w := chattest.NewWorld()
	subs := subjects(w)

	ch := Literal(FieldChannel, "#general")
	assert.True(t, ch.Match(subs["message"]))
	assert.False(t, ch.Match(subs["dm"]), "a direct message has no channel")
	assert.True(t, ch.Match(subs["channel"]))
	assert.True(t, ch.Match(subs["user"]), "users cannot be judged by channel")
	assert.True(t, ch.Match(subs["service"]))
	assert.True(t, ch.Match(subs["guild"]))

	g := Literal(FieldGuild, "other")
	assert.False(t, g.Match(subs["message"]))
	assert.False(t, g.Match(subs["channel"]))
	assert.False(t, g.Match(subs["guild"]))
	assert.False(t, g.Match(subs["dm"]))
	assert.True(t, g.Match(subs["user"]))

	svc := Pattern(FieldServiceName, regexp.MustCompile(`^(?:Lib.*)$`))
	for name, s := range subs {
		assert.True(t, svc.Match(s), name)
	}

	text := Literal(FieldText, "hi")
	assert.True(t, text.Match(subs["message"]))
	assert.True(t, text.Match(subs["channel"]))
	assert.False(t, Literal(FieldText, "bye").Match(subs["message"]))

	user := Literal(FieldUserName, "Alice")
	assert.True(t, user.Match(subs["message"]))
	assert.True(t, user.Match(subs["user"]))
	assert.True(t, user.Match(subs["guild"]))
}

func TestPermissionFlagNSFW(t *testing.T) {
	w := chattest.NewWorld()
	w.User.ChannelPerms = map[string][]string{"#general": {"op"}}
	w.Channel.FlagList = []string{"moderated"}
	w.Channel.IsNSFW = true
	subs := subjects(w)

	op := Permission("op")
	assert.True(t, op.Match(subs["message"]))
	assert.False(t, op.Match(subs["dm"]))
	assert.False(t, op.Match(subs["user"]), "no global op permission")
	assert.True(t, op.Match(subs["channel"]))

	w.User.Perms = []string{"op"}
	assert.True(t, op.Match(subs["user"]))

	assert.True(t, Flag("moderated").Match(subs["message"]))
	assert.False(t, Flag("secret").Match(subs["channel"]))
	assert.True(t, Flag("secret").Match(subs["user"]))

	assert.True(t, NSFW(true).Match(subs["message"]))
	assert.False(t, NSFW(false).Match(subs["message"]))
	assert.True(t, NSFW(false).Match(subs["dm"]))
	assert.False(t, NSFW(true).Match(subs["dm"]))
}

func TestVisibleIDProtocol(t *testing.T) {
	subs := subjects(chattest.NewWorld())

	assert.True(t, Visible("alice").Match(subs["message"]))
	assert.False(t, Visible("bob").Match(subs["channel"]))
	assert.False(t, Visible("bob").Match(subs["guild"]))
	assert.False(t, Visible("alice").Match(subs["dm"]))
	assert.True(t, Visible("bob").Match(subs["user"]))

	assert.True(t, ID(chat.KindUser, "alice").Match(subs["message"]))
	assert.False(t, ID(chat.KindUser, "bob").Match(subs["user"]))
	assert.True(t, ID(chat.KindUser, "bob").Match(subs["channel"]))
	assert.True(t, ID(chat.KindGuild, "g1").Match(subs["guild"]))

	assert.True(t, Protocol("IRC").Match(subs["guild"]))
	assert.False(t, Protocol("discord").Match(subs["message"]))
}

func TestBuild(t *testing.T) {
	msg := chat.OfMessage(chattest.NewWorld().Say("!echo hi"))

	sel, err := Build(Spec{Kind: "and", Params: map[string]any{
		"selectors": []any{
			map[string]any{"kind": "protocol", "params": map[string]any{"protocol": "irc"}},
			map[string]any{"kind": "match", "params": map[string]any{"field": "text", "regex": "!echo.*"}},
			map[string]any{"kind": "or", "params": map[string]any{"selectors": []any{
				map[string]any{"kind": "id", "params": map[string]any{"of": "user", "id": "bob"}},
				map[string]any{"kind": "match", "params": map[string]any{"field": "channel_name", "regex": "GEN.*", "ignore_case": true}},
			}}},
		},
	}})
	require.NoError(t, err)
	assert.True(t, sel.Match(msg))

	sel, err = Build(Spec{Kind: "all"})
	require.NoError(t, err)
	assert.True(t, sel.Match(msg))

	sel, err = Build(Spec{Kind: "nsfw", Params: map[string]any{"nsfw": false}})
	require.NoError(t, err)
	assert.True(t, sel.Match(msg))
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]struct {
		spec Spec
		want error
	}{
		"unknown kind":   {Spec{Kind: "weather"}, ErrUnknownKind},
		"empty kind":     {Spec{}, ErrUnknownKind},
		"empty and":      {Spec{Kind: "and"}, ErrInvalidParams},
		"bad child":      {Spec{Kind: "or", Params: map[string]any{"selectors": []any{map[string]any{"kind": "nope"}}}}, ErrUnknownKind},
		"child not map":  {Spec{Kind: "or", Params: map[string]any{"selectors": []any{"all"}}}, ErrInvalidParams},
		"bad field":      {Spec{Kind: "match", Params: map[string]any{"field": "mood", "value": "x"}}, ErrInvalidParams},
		"bad regex":      {Spec{Kind: "match", Params: map[string]any{"field": "text", "regex": "(["}}, ErrInvalidParams},
		"value+regex":    {Spec{Kind: "match", Params: map[string]any{"field": "text", "value": "a", "regex": "a"}}, ErrInvalidParams},
		"no pattern":     {Spec{Kind: "match", Params: map[string]any{"field": "text"}}, ErrInvalidParams},
		"nsfw not bool":  {Spec{Kind: "nsfw", Params: map[string]any{"nsfw": "yes"}}, ErrInvalidParams},
		"ignore_case":    {Spec{Kind: "match", Params: map[string]any{"field": "text", "regex": "a", "ignore_case": "yes"}}, ErrInvalidParams},
		"id of message":  {Spec{Kind: "id", Params: map[string]any{"of": "message", "id": "1"}}, ErrInvalidParams},
		"missing perm":   {Spec{Kind: "permission"}, ErrInvalidParams},
		"protocol typed": {Spec{Kind: "protocol", Params: map[string]any{"protocol": 5}}, ErrInvalidParams},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(tc.spec)
			require.ErrorIs(t, err, tc.want)
		})
	}
}
