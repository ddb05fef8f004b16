package scope

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/EgorLis/chatbot/internal/alias"
	"github.com/EgorLis/chatbot/internal/config"
	"github.com/EgorLis/chatbot/internal/flex"
	"github.com/EgorLis/chatbot/internal/selector"
)

// Build компилирует mapping'и и группы в Resolver.
//
// Первый проход проверяет структуру и создаёт экземпляры определений
// (Created); любая ошибка - *ConfigError, FromConfig при этом никто не
// вызывал. Второй проход вызывает FromConfig; упавшие слушатели помечаются
// Failed и в контексты не попадают.
func Build(mappings []config.Mapping, groups []config.Group, reg *Registry, log *zap.Logger) (*Resolver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{
		reg:      reg,
		log:      log,
		specs:    make(map[string]*config.Group, len(groups)),
		compiled: make(map[string]*Group, len(groups)),
	}

	for i := range groups {
		g := &groups[i]
		if _, dup := b.specs[g.Name]; dup {
			return nil, &ConfigError{Group: g.Name, Err: ErrDuplicateGroup}
		}
		b.specs[g.Name] = g
	}

	res := &Resolver{groups: b.compiled, log: log.Named("scope")}

	for i, m := range mappings {
		cm, err := b.mapping(m)
		if err != nil {
			return nil, fmt.Errorf("mapping #%d: %w", i, err)
		}
		res.mappings = append(res.mappings, cm)
	}
	for i := range groups {
		if _, err := b.group(groups[i].Name); err != nil {
			return nil, err
		}
	}
	b.warnOrphans(res.mappings)

	res.envelopes = b.envelopes
	for _, env := range b.envelopes {
		if err := env.Configure(); err != nil {
			logListenerFailure(log, "listener dropped: configure failed", env, err)
		}
	}
	return res, nil
}

func logListenerFailure(log *zap.Logger, msg string, env *Envelope, err error) {
	fields := []zap.Field{zap.String("listener", env.Origin), zap.Error(err)}
	if IsListenerError(err) {
		log.Warn(msg, fields...)
		return
	}
	log.Error(msg, append(fields, zap.Bool("unexpected", true))...)
}

type builder struct {
	reg       *Registry
	log       *zap.Logger
	specs     map[string]*config.Group
	compiled  map[string]*Group
	stack     []string
	envelopes []*Envelope
}

func (b *builder) mapping(m config.Mapping) (*Mapping, error) {
	if len(m.Groups) == 0 {
		return nil, &ConfigError{Err: fmt.Errorf("%w: no groups", ErrInvalidMapping)}
	}
	out := &Mapping{}
	for _, spec := range m.Selectors {
		sel, err := selector.Build(spec)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		out.selectors = append(out.selectors, sel)
	}
	for _, name := range m.Groups {
		g, err := b.group(name)
		if err != nil {
			return nil, err
		}
		out.groups = append(out.groups, g)
	}
	return out, nil
}

// group компилирует группу name, сначала её include'ы. Стек путей ловит циклы.
func (b *builder) group(name string) (*Group, error) {
	if g, ok := b.compiled[name]; ok {
		return g, nil
	}
	spec, ok := b.specs[name]
	if !ok {
		return nil, &ConfigError{Err: fmt.Errorf("%w %q", ErrUnknownGroup, name)}
	}
	for i, onStack := range b.stack {
		if onStack == name {
			path := append(append([]string{}, b.stack[i:]...), name)
			return nil, &ConfigError{Group: name, Err: fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> "))}
		}
	}
	b.stack = append(b.stack, name)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	g := &Group{Name: name, flex: flex.New(spec.Flex)}
	for _, inc := range spec.Include {
		ig, err := b.group(inc)
		if err != nil {
			var ce *ConfigError
			if errors.As(err, &ce) && ce.Group == "" {
				ce.Group = name
			}
			return nil, err
		}
		g.includes = append(g.includes, ig)
	}

	// локальный под-контекст: то, что видно ссылкам этой группы
	local := newContext(zap.NewNop())
	for _, ig := range g.includes {
		local.addGroup(ig)
	}
	own := make(map[string]*anchor, len(spec.Listeners))

	for _, as := range spec.Listeners {
		if _, dup := own[as.Name]; dup {
			return nil, &ConfigError{Group: name, Listener: as.Name, Err: ErrDuplicateListener}
		}
		a, err := b.anchor(name, as, local)
		if err != nil {
			return nil, &ConfigError{Group: name, Listener: as.Name, Err: err}
		}
		own[as.Name] = a
		g.anchors = append(g.anchors, a)
	}

	b.compiled[name] = g
	return g, nil
}

func (b *builder) anchor(group string, as config.Anchor, local *Context) (*anchor, error) {
	if strings.TrimSpace(as.Name) == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidAnchor)
	}
	spec, err := alias.Parse(as.Alias)
	if err != nil {
		return nil, err
	}
	a := &anchor{name: as.Name, help: as.Help, flex: flex.New(as.Flex)}

	switch as.Form {
	case config.FormDef:
		l, ok := b.reg.New(as.Implementation)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownImplementation, as.Implementation)
		}
		cfg, err := staticConfig(as.Config)
		if err != nil {
			return nil, err
		}
		origin := fmt.Sprintf("%s/%s (%s)", group, as.Name, as.Implementation)
		a.env = NewEnvelope(l, origin, cfg)
		if cmd, ok := l.(Command); ok {
			a.aliases = alias.FromNames(cmd.Aliases()...)
		}
		b.envelopes = append(b.envelopes, a.env)

	case config.FormRef:
		if as.Implementation != "" || as.Config != nil {
			return nil, fmt.Errorf("%w: ref cannot carry implementation or config", ErrInvalidAnchor)
		}
		// своё имя в группе уже отсечено проверкой дублей, ищем только в include'ах
		ref, ok := local.Reference(as.Name)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownListener, as.Name)
		}
		a.env = ref.Envelope
		if ref.Aliases != nil {
			a.aliases = ref.Aliases.Clone()
		}
		if a.aliases == nil && a.env.IsCommand() {
			a.aliases = alias.New()
		}

	default:
		return nil, fmt.Errorf("%w: form %q", ErrInvalidAnchor, as.Form)
	}

	if spec != nil {
		if !a.env.IsCommand() {
			return nil, ErrAliasNotCommand
		}
		a.spec = spec
		a.aliases.ApplySpec(spec)
	}
	return a, nil
}

func staticConfig(m map[string]any) (*structpb.Struct, error) {
	if m == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaticConfig, err)
	}
	return s, nil
}

// warnOrphans пишет в лог группы, недостижимые ни из одного mapping'а.
func (b *builder) warnOrphans(mappings []*Mapping) {
	reached := make(map[*Group]bool)
	var walk func(g *Group)
	walk = func(g *Group) {
		if reached[g] {
			return
		}
		reached[g] = true
		for _, inc := range g.includes {
			walk(inc)
		}
	}
	for _, m := range mappings {
		for _, g := range m.groups {
			walk(g)
		}
	}
	for name, g := range b.compiled {
		if !reached[g] {
			b.log.Warn("orphan group: not referenced by any mapping", zap.String("group", name))
		}
	}
}
