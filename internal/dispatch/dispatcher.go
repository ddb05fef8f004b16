package dispatch

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/flex"
	"github.com/EgorLis/chatbot/internal/scope"
)

// Ключи flex-конфига, которые читает диспетчер.
const (
	KeyDisabled   = "dispatcher.disabled"
	KeyInvocation = "dispatcher.invocation"
	KeyVerbose    = "dispatcher.verbose"
)

// GenericErrorReply - ответ пользователю на упавшую команду при
// dispatcher.verbose. Подробности только в логе.
const GenericErrorReply = "Sorry, something went wrong while running that command."

type Option func(*Dispatcher)

// WithCacheSize задаёт ёмкость кэша шаблонов (по умолчанию 10).
func WithCacheSize(n int) Option {
	return func(d *Dispatcher) { d.patterns = newPatternCache(n) }
}

// WithErrorReply заменяет GenericErrorReply.
func WithErrorReply(text string) Option {
	return func(d *Dispatcher) { d.errorReply = text }
}

type Dispatcher struct {
	resolver   *scope.Resolver
	log        *zap.Logger
	patterns   *patternCache
	errorReply string

	mu       sync.Mutex
	drained  *sync.Cond
	inFlight int
	closed   bool
}

func New(resolver *scope.Resolver, log *zap.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		resolver:   resolver,
		log:        log.Named("dispatch"),
		patterns:   newPatternCache(defaultCacheSize),
		errorReply: GenericErrorReply,
	}
	d.drained = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolver - конфигурация, которую обслуживает диспетчер.
func (d *Dispatcher) Resolver() *scope.Resolver { return d.resolver }

func (d *Dispatcher) enter() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.inFlight++
	return true
}

func (d *Dispatcher) leave() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight--
	if d.inFlight == 0 && d.closed {
		d.drained.Broadcast()
	}
}

// Dispatch обрабатывает одно сообщение синхронно. Безопасен для
// параллельных вызовов; после Shutdown сообщения молча отбрасываются.
func (d *Dispatcher) Dispatch(msg chat.Message) {
	if !d.enter() {
		return
	}
	defer d.leave()

	ctx := d.resolver.Resolve(msg)
	if flex.Bool(ctx.Flex, KeyDisabled) {
		return
	}

	invoked := d.command(msg, ctx)
	isCommand := invoked != nil

	for _, ref := range ctx.References() {
		if isCommand && ref.Envelope.ID == invoked.Envelope.ID {
			continue
		}
		if flex.Bool(ref.Flex, KeyDisabled) {
			continue
		}
		err := scope.Safely(func() error {
			return ref.Envelope.Listener.OnMessage(msg, isCommand)
		})
		if err != nil {
			d.report("listener failed", ref, err)
		}
	}
}

// command разбирает и выполняет команду. Возвращает вызванную ссылку
// или nil, если сообщение не команда.
func (d *Dispatcher) command(msg chat.Message, ctx *scope.Context) *scope.Reference {
	expr, ok := flex.Get[string](ctx.Flex, KeyInvocation)
	if !ok || expr == "" {
		return nil
	}
	re, err := d.patterns.get(expr)
	if err != nil {
		d.log.Warn("bad invocation pattern", zap.Error(err))
		return nil
	}
	name, arg, ok, err := ParseInvocation(re, msg.Text())
	if err != nil {
		d.log.Warn("bad invocation pattern", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	ref, ok := ctx.Lookup(name)
	if !ok || flex.Bool(ref.Flex, KeyDisabled) {
		return nil
	}
	cmd, ok := ref.Command()
	if !ok {
		return nil
	}

	d.log.Debug("command",
		zap.String("alias", name),
		zap.String("listener", ref.Envelope.Origin))

	inv := &scope.Invocation{
		Alias:     name,
		Argument:  arg,
		Message:   msg,
		Context:   ctx,
		Reference: ref,
	}
	if err := scope.Safely(func() error { return cmd.Execute(inv) }); err != nil {
		d.report("command failed", ref, err, zap.String("alias", name))
		if flex.Bool(ref.Flex, KeyVerbose) {
			if rerr := msg.Reply(d.errorReply); rerr != nil {
				d.log.Warn("error reply failed", zap.Error(rerr))
			}
		}
	}
	return ref
}

func (d *Dispatcher) report(msg string, ref *scope.Reference, err error, extra ...zap.Field) {
	fields := append([]zap.Field{zap.String("listener", ref.Envelope.Origin), zap.Error(err)}, extra...)
	if scope.IsListenerError(err) {
		d.log.Warn(msg, fields...)
		return
	}
	var pe *scope.PanicError
	if errors.As(err, &pe) {
		fields = append(fields, zap.ByteString("stack", pe.Stack))
	}
	d.log.Error(msg, fields...)
}

// Shutdown запрещает новые Dispatch и ждёт завершения начатых.
// Повторный вызов безопасен.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for d.inFlight > 0 {
		d.drained.Wait()
	}
}
