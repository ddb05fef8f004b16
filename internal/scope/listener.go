package scope

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/EgorLis/chatbot/internal/chat"
)

// Handle - то, что бот отдаёт слушателям в Init/Start/Stop.
type Handle interface {
	Logger() *zap.Logger
	// Dirty - бот в необратимом "грязном" состоянии.
	Dirty() bool
}

// Listener - обработчик событий. Один экземпляр может вызываться
// параллельно для разных событий; если нужна последовательная обработка,
// синхронизация - забота слушателя.
type Listener interface {
	FromConfig(cfg *structpb.Struct) error
	Init(h Handle, pending *Resolver) error
	Start(h Handle, pending *Resolver) error
	Stop(h Handle, pending *Resolver) error
	OnMessage(msg chat.Message, isCommand bool) error
}

// Command - слушатель, которого можно вызвать по алиасу.
type Command interface {
	Listener
	Execute(inv *Invocation) error
	// Aliases - алиасы по умолчанию.
	Aliases() []string
}

// Describer - необязательный текст справки.
type Describer interface {
	Help() string
}

// BaseListener - пустые реализации методов Listener для встраивания.
type BaseListener struct{}

func (BaseListener) FromConfig(*structpb.Struct) error  { return nil }
func (BaseListener) Init(Handle, *Resolver) error       { return nil }
func (BaseListener) Start(Handle, *Resolver) error      { return nil }
func (BaseListener) Stop(Handle, *Resolver) error       { return nil }
func (BaseListener) OnMessage(chat.Message, bool) error { return nil }

// Invocation - разобранный вызов команды.
type Invocation struct {
	Alias     string
	Argument  string
	Message   chat.Message
	Context   *Context
	Reference *Reference
}

func (inv *Invocation) Reply(text string) error { return inv.Message.Reply(text) }

// ---------- состояние ----------

type State uint32

const (
	StateCreated State = iota
	StateConfigured
	StateInitialized
	StateStarted
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConfigured:
		return "configured"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// ---------- Envelope ----------

// Envelope - идентичность одного экземпляра слушателя. Слияние ссылок
// в Context сравнивает ID, а не значения.
type Envelope struct {
	ID       uuid.UUID
	Listener Listener
	// Origin - человекочитаемое происхождение: группа, имя, реализация.
	Origin string

	config *structpb.Struct
	state  atomic.Uint32
}

func NewEnvelope(l Listener, origin string, cfg *structpb.Struct) *Envelope {
	return &Envelope{ID: uuid.New(), Listener: l, Origin: origin, config: cfg}
}

func (e *Envelope) State() State { return State(e.state.Load()) }

func (e *Envelope) String() string { return e.Origin }

// IsCommand - слушатель реализует Command.
func (e *Envelope) IsCommand() bool {
	_, ok := e.Listener.(Command)
	return ok
}

func (e *Envelope) transition(from, to State) error {
	if !e.state.CompareAndSwap(uint32(from), uint32(to)) {
		return fmt.Errorf("%w: %s: %s -> %s", ErrBadState, e.Origin, e.State(), to)
	}
	return nil
}

// step вызывает fn в состоянии from; успех переводит в to, ошибка - в Failed.
func (e *Envelope) step(from, to State, fn func() error) error {
	if e.State() != from {
		return fmt.Errorf("%w: %s: expected %s, got %s", ErrBadState, e.Origin, from, e.State())
	}
	if err := Safely(fn); err != nil {
		e.state.Store(uint32(StateFailed))
		return err
	}
	return e.transition(from, to)
}

// Configure: Created → Configured.
func (e *Envelope) Configure() error {
	return e.step(StateCreated, StateConfigured, func() error {
		return e.Listener.FromConfig(e.config)
	})
}

// Init: Configured → Initialized.
func (e *Envelope) Init(h Handle, pending *Resolver) error {
	return e.step(StateConfigured, StateInitialized, func() error {
		return e.Listener.Init(h, pending)
	})
}

// Start: Initialized → Started.
func (e *Envelope) Start(h Handle, pending *Resolver) error {
	return e.step(StateInitialized, StateStarted, func() error {
		return e.Listener.Start(h, pending)
	})
}

// Stop: Started → Stopped. Stopped - конечное состояние даже при ошибке.
func (e *Envelope) Stop(h Handle, pending *Resolver) error {
	if err := e.transition(StateStarted, StateStopped); err != nil {
		return err
	}
	return Safely(func() error { return e.Listener.Stop(h, pending) })
}

// Fail выбрасывает слушателя из конфигурации.
func (e *Envelope) Fail() { e.state.Store(uint32(StateFailed)) }

// Safely вызывает fn, превращая панику в *PanicError.
func Safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// ---------- реестр реализаций ----------

// Constructor создаёт ненастроенный экземпляр (состояние Created).
type Constructor func() Listener

type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register регистрирует реализацию; повторная регистрация id заменяет старую.
func (r *Registry) Register(id string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[id] = ctor
}

func (r *Registry) New(id string) (Listener, bool) {
	r.mu.RLock()
	ctor, ok := r.ctors[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return ctor(), true
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.ctors))
	for id := range r.ctors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
