package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/chat/chattest"
	"github.com/EgorLis/chatbot/internal/config"
	"github.com/EgorLis/chatbot/internal/scope"
	"github.com/EgorLis/chatbot/internal/selector"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type behaviour struct {
	initErr, startErr, stopErr error
}

type life struct {
	scope.BaseListener
	id string
	behaviour
	j *journal

	mu      sync.Mutex
	pending *scope.Resolver
}

func (l *life) Init(h scope.Handle, _ *scope.Resolver) error {
	l.j.add(l.id + ":init")
	return l.initErr
}

func (l *life) Start(h scope.Handle, _ *scope.Resolver) error {
	l.j.add(l.id + ":start")
	return l.startErr
}

func (l *life) Stop(h scope.Handle, pending *scope.Resolver) error {
	l.j.add(l.id + ":stop")
	l.mu.Lock()
	l.pending = pending
	l.mu.Unlock()
	return l.stopErr
}

func (l *life) OnMessage(msg chat.Message, _ bool) error {
	l.j.add(l.id + ":" + msg.Text())
	return nil
}

type harness struct {
	j   *journal
	reg *scope.Registry
	bot *Bot
}

func newHarness(t *testing.T, impls map[string]behaviour) *harness {
	t.Helper()
	h := &harness{j: &journal{}, reg: scope.NewRegistry()}
	for id, b := range impls {
		h.reg.Register(id, func() scope.Listener { return &life{id: id, behaviour: b, j: h.j} })
	}
	h.bot = New(h.reg, zap.NewNop())
	return h
}

func configOf(ids ...string) *config.Config {
	g := config.Group{Name: "g"}
	for _, id := range ids {
		g.Listeners = append(g.Listeners, config.Anchor{Form: config.FormDef, Name: id, Implementation: id})
	}
	return &config.Config{
		Mappings: []config.Mapping{{Selectors: []selector.Spec{{Kind: "all"}}, Groups: []string{"g"}}},
		Groups:   []config.Group{g},
	}
}

func TestLoadAndDispatch(t *testing.T) {
	h := newHarness(t, map[string]behaviour{"a": {}, "b": {}})
	h.bot.Dispatch(chattest.NewWorld().Say("before load"))

	require.NoError(t, h.bot.Load(configOf("a", "b")))
	h.bot.Dispatch(chattest.NewWorld().Say("hi"))
	h.bot.Stop()

	assert.Equal(t, []string{
		"a:init", "b:init",
		"a:start", "b:start",
		"a:hi", "b:hi",
		"b:stop", "a:stop",
	}, h.j.all())
	assert.Nil(t, h.bot.Active())
	assert.False(t, h.bot.Dirty())
}

func TestInitFailureDropsOnlyThatListener(t *testing.T) {
	h := newHarness(t, map[string]behaviour{
		"a":     {},
		"typed": {initErr: scope.ListenerErrorf("missing token")},
		"wild":  {initErr: errors.New("surprise")},
		"z":     {},
	})
	require.NoError(t, h.bot.Load(configOf("a", "typed", "wild", "z")))
	h.bot.Dispatch(chattest.NewWorld().Say("hi"))

	assert.Equal(t, []string{
		"a:init", "typed:init", "wild:init", "z:init",
		"a:start", "z:start",
		"a:hi", "z:hi",
	}, h.j.all())
	assert.False(t, h.bot.Dirty(), "init failures never make the bot dirty")
	h.bot.Stop()
}

func TestStartFailureKeepsPreviousConfig(t *testing.T) {
	h := newHarness(t, map[string]behaviour{
		"old":  {},
		"x":    {},
		"y":    {startErr: scope.ListenerErrorf("port busy")},
		"tail": {},
	})
	require.NoError(t, h.bot.Load(configOf("old")))
	prev := h.bot.Active()

	err := h.bot.Load(configOf("x", "y", "tail"))
	require.ErrorIs(t, err, ErrStartAborted)
	assert.Same(t, prev, h.bot.Active())
	assert.False(t, h.bot.Dirty())

	h.bot.Dispatch(chattest.NewWorld().Say("hi"))
	assert.Equal(t, []string{
		"old:init", "old:start",
		"x:init", "y:init", "tail:init",
		"x:start", "y:start", "x:stop",
		"old:hi",
	}, h.j.all(), "tail is never started, x is rolled back")
	h.bot.Stop()
}

func TestUnexpectedStartFailureMarksDirty(t *testing.T) {
	h := newHarness(t, map[string]behaviour{
		"ok":  {},
		"bad": {startErr: errors.New("corrupted state")},
	})
	require.NoError(t, h.bot.Load(configOf("ok")))

	err := h.bot.Load(configOf("bad"))
	require.ErrorIs(t, err, ErrStartAborted)
	assert.True(t, h.bot.Dirty())
	assert.Contains(t, h.bot.Health().Reason(), "bad")

	require.ErrorIs(t, h.bot.Load(configOf("ok")), ErrDirty)
	h.bot.Stop()
}

func TestReloadStopsPreviousListeners(t *testing.T) {
	h := newHarness(t, map[string]behaviour{"a": {}, "b": {}})
	require.NoError(t, h.bot.Load(configOf("a")))
	first := h.bot.Active()
	require.NoError(t, h.bot.Load(configOf("b")))
	second := h.bot.Active()
	require.NotSame(t, first, second)

	// старый диспетчер уже осушен и ничего не принимает
	first.Dispatch(chattest.NewWorld().Say("stale"))
	h.bot.Dispatch(chattest.NewWorld().Say("fresh"))

	assert.Equal(t, []string{
		"a:init", "a:start",
		"b:init", "b:start",
		"a:stop",
		"b:fresh",
	}, h.j.all())
	h.bot.Stop()
}

func TestReloadPassesPendingResolverToStop(t *testing.T) {
	j := &journal{}
	var old *life
	reg := scope.NewRegistry()
	reg.Register("a", func() scope.Listener {
		old = &life{id: "a", j: j}
		return old
	})
	reg.Register("b", func() scope.Listener { return &life{id: "b", j: j} })
	b := New(reg, zap.NewNop())

	require.NoError(t, b.Load(configOf("a")))
	require.NoError(t, b.Load(configOf("b")))

	old.mu.Lock()
	defer old.mu.Unlock()
	assert.Same(t, b.Active().Resolver(), old.pending)
	b.Stop()
}

func TestUnexpectedStopFailureAbortsRemainingStops(t *testing.T) {
	h := newHarness(t, map[string]behaviour{
		"p":   {},
		"q":   {stopErr: errors.New("flush failed")},
		"new": {},
	})
	require.NoError(t, h.bot.Load(configOf("p", "q")))

	err := h.bot.Load(configOf("new"))
	require.Error(t, err)
	assert.True(t, h.bot.Dirty())

	entries := h.j.all()
	assert.Contains(t, entries, "q:stop")
	assert.NotContains(t, entries, "p:stop", "stops are aborted after an unexpected failure")
	h.bot.Stop()
}

func TestTypedStopFailureContinues(t *testing.T) {
	h := newHarness(t, map[string]behaviour{
		"p": {},
		"q": {stopErr: scope.ListenerErrorf("already closed")},
	})
	require.NoError(t, h.bot.Load(configOf("p", "q")))
	h.bot.Stop()

	assert.Equal(t, []string{"p:init", "q:init", "p:start", "q:start", "q:stop", "p:stop"}, h.j.all())
	assert.False(t, h.bot.Dirty())
}

func TestConfigErrorKeepsPreviousConfig(t *testing.T) {
	h := newHarness(t, map[string]behaviour{"a": {}})
	require.NoError(t, h.bot.Load(configOf("a")))
	prev := h.bot.Active()

	bad := configOf("a")
	bad.Groups[0].Include = []string{"g"}
	err := h.bot.Load(bad)

	var ce *scope.ConfigError
	require.ErrorAs(t, err, &ce)
	require.ErrorIs(t, err, scope.ErrCycle)
	assert.Same(t, prev, h.bot.Active())
	assert.Equal(t, []string{"a:init", "a:start"}, h.j.all(), "nothing new leaves the created state")
	h.bot.Stop()
}

type fakeAdapter struct {
	name string
	text string
	err  error
	sent chan struct{}
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Run(ctx context.Context, sink chat.Sink) error {
	if a.text != "" {
		sink(chattest.NewWorld().Say(a.text))
		close(a.sent)
	}
	if a.err != nil {
		return a.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunAndStop(t *testing.T) {
	h := newHarness(t, map[string]behaviour{"a": {}})
	require.NoError(t, h.bot.Load(configOf("a")))

	ad := &fakeAdapter{name: "fake", text: "ping", sent: make(chan struct{})}
	errc := make(chan error, 1)
	go func() { errc <- h.bot.Run(context.Background(), ad) }()

	<-ad.sent
	require.Eventually(t, func() bool {
		h.bot.mu.Lock()
		defer h.bot.mu.Unlock()
		return h.bot.stopCh != nil
	}, time.Second, time.Millisecond)
	require.ErrorIs(t, h.bot.Run(context.Background(), ad), ErrRunning)

	h.bot.Stop()
	require.NoError(t, <-errc)
	assert.Equal(t, []string{"a:init", "a:start", "a:ping", "a:stop"}, h.j.all())
}

func TestRunContextCancel(t *testing.T) {
	h := newHarness(t, map[string]behaviour{"a": {}})
	require.NoError(t, h.bot.Load(configOf("a")))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.bot.Run(ctx, &fakeAdapter{name: "idle"}) }()
	cancel()

	require.NoError(t, <-errc)
	assert.Nil(t, h.bot.Active())
	assert.Contains(t, h.j.all(), "a:stop")
}

func TestRunAdapterFailure(t *testing.T) {
	h := newHarness(t, map[string]behaviour{"a": {}})
	require.NoError(t, h.bot.Load(configOf("a")))

	boom := errors.New("connection refused")
	err := h.bot.Run(context.Background(),
		&fakeAdapter{name: "broken", err: boom},
		&fakeAdapter{name: "idle"})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, h.bot.Active())
}

func TestRunNotLoaded(t *testing.T) {
	b := New(scope.NewRegistry(), nil)
	require.ErrorIs(t, b.Run(context.Background()), ErrNotLoaded)
	b.Stop()
}
