package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/config"
	"github.com/EgorLis/chatbot/internal/dispatch"
	"github.com/EgorLis/chatbot/internal/scope"
)

type Bot struct {
	log    *zap.Logger
	reg    *scope.Registry
	health *Health
	opts   []dispatch.Option

	// reloadMu сериализует Load и Stop; started принадлежит ему.
	reloadMu sync.Mutex
	active   atomic.Pointer[dispatch.Dispatcher]
	started  []*scope.Envelope

	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(reg *scope.Registry, log *zap.Logger, opts ...dispatch.Option) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		log:    log,
		reg:    reg,
		health: newHealth(log.Named("health")),
		opts:   opts,
	}
}

func (b *Bot) Logger() *zap.Logger { return b.log }

func (b *Bot) Dirty() bool { return b.health.Dirty() }

func (b *Bot) Health() *Health { return b.health }

// Active - текущий диспетчер или nil до первого Load.
func (b *Bot) Active() *dispatch.Dispatcher { return b.active.Load() }

// Dispatch отдаёт сообщение активному диспетчеру. До первого Load
// сообщения отбрасываются.
func (b *Bot) Dispatch(msg chat.Message) {
	if d := b.active.Load(); d != nil {
		d.Dispatch(msg)
	}
}

// Load собирает cfg и делает его активной конфигурацией. При ошибке
// прежняя конфигурация остаётся в силе.
func (b *Bot) Load(cfg *config.Config) error {
	b.reloadMu.Lock()
	defer b.reloadMu.Unlock()

	if b.Dirty() {
		return ErrDirty
	}

	res, err := scope.Build(cfg.Mappings, cfg.Groups, b.reg, b.log)
	if err != nil {
		return err
	}

	envs := res.Envelopes()
	for _, env := range envs {
		if env.State() != scope.StateConfigured {
			continue
		}
		if err := env.Init(b, res); err != nil {
			logFailure(b.log, "listener dropped: init failed", env, err)
		}
	}

	var started []*scope.Envelope
	for _, env := range envs {
		if env.State() != scope.StateInitialized {
			continue
		}
		if err := env.Start(b, res); err != nil {
			logFailure(b.log, "start failed, configuration aborted", env, err)
			if !scope.IsListenerError(err) {
				b.health.MarkDirty("listener start: "+env.Origin, err)
			}
			if serr := b.stopAll(started, res); serr != nil {
				err = errors.Join(err, serr)
			}
			return fmt.Errorf("%w: %s: %w", ErrStartAborted, env.Origin, err)
		}
		started = append(started, env)
	}

	next := dispatch.New(res, b.log, b.opts...)
	prev := b.active.Swap(next)
	prevStarted := b.started
	b.started = started

	b.log.Info("configuration loaded",
		zap.Int("listeners", len(started)),
		zap.Int("dropped", len(envs)-len(started)))

	if prev == nil {
		return nil
	}
	prev.Shutdown()
	if err := b.stopAll(prevStarted, res); err != nil {
		return fmt.Errorf("stop previous configuration: %w", err)
	}
	return nil
}

// stopAll останавливает envs в обратном порядке запуска. Типизированные
// ошибки логируются, неожиданная прерывает остановку и делает бота dirty.
func (b *Bot) stopAll(envs []*scope.Envelope, pending *scope.Resolver) error {
	for _, env := range slices.Backward(envs) {
		err := env.Stop(b, pending)
		if err == nil {
			continue
		}
		logFailure(b.log, "listener stop failed", env, err)
		if scope.IsListenerError(err) {
			continue
		}
		b.health.MarkDirty("listener stop: "+env.Origin, err)
		return err
	}
	return nil
}

func logFailure(log *zap.Logger, msg string, env *scope.Envelope, err error) {
	fields := []zap.Field{zap.String("listener", env.Origin), zap.Error(err)}
	if scope.IsListenerError(err) {
		log.Warn(msg, fields...)
		return
	}
	log.Error(msg, append(fields, zap.Bool("unexpected", true))...)
}

// Run запускает адаптеры и кормит их сообщениями Dispatch. Возвращается,
// когда ctx отменён, вызван Stop, все адаптеры завершились или один из
// них упал. Перед возвратом конфигурация останавливается.
func (b *Bot) Run(ctx context.Context, adapters ...chat.Adapter) error {
	if b.active.Load() == nil {
		return ErrNotLoaded
	}
	b.mu.Lock()
	if b.stopCh != nil {
		b.mu.Unlock()
		return ErrRunning
	}
	stopCh := make(chan struct{})
	b.stopCh = stopCh
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range adapters {
		g.Go(func() error {
			log := b.log.With(zap.String("adapter", a.Name()))
			log.Info("adapter started")
			err := a.Run(gctx, b.Dispatch)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("adapter failed", zap.Error(err))
				return fmt.Errorf("adapter %s: %w", a.Name(), err)
			}
			log.Info("adapter stopped")
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-stopCh:
		cancel()
		err = <-done
	}

	b.mu.Lock()
	if b.stopCh == stopCh {
		b.stopCh = nil
	}
	b.mu.Unlock()

	b.teardown()
	return err
}

// Stop останавливает Run (если он идёт) и всю конфигурацию. Повторный
// вызов ничего не делает.
func (b *Bot) Stop() {
	b.mu.Lock()
	ch := b.stopCh
	b.stopCh = nil
	b.mu.Unlock()

	if ch != nil {
		close(ch) // Run сам вызовет teardown
		b.wg.Wait()
		return
	}
	b.teardown()
}

func (b *Bot) teardown() {
	b.reloadMu.Lock()
	defer b.reloadMu.Unlock()

	d := b.active.Swap(nil)
	if d == nil {
		return
	}
	d.Shutdown()
	if err := b.stopAll(b.started, nil); err != nil {
		b.log.Error("shutdown incomplete", zap.Error(err))
	}
	b.started = nil
	b.log.Info("configuration stopped")
}
