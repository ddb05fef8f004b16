package scope

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/EgorLis/chatbot/internal/alias"
	"github.com/EgorLis/chatbot/internal/flex"
)

// Reference - слушатель в составе Context: имя, под которым его видно,
// его Envelope, собственный flex и алиасы (только у команд).
type Reference struct {
	Name     string
	Envelope *Envelope
	Flex     *flex.Conf
	Aliases  *alias.Set

	help string
}

// Help - переопределение из конфига или справка самого слушателя.
func (r *Reference) Help() string {
	if r.help != "" {
		return r.help
	}
	if d, ok := r.Envelope.Listener.(Describer); ok {
		return d.Help()
	}
	return ""
}

// Command возвращает слушателя как Command, если он им является.
func (r *Reference) Command() (Command, bool) {
	c, ok := r.Envelope.Listener.(Command)
	return c, ok
}

// Context - слитое состояние для одного события.
type Context struct {
	Flex *flex.Conf

	refs     map[string]*Reference
	aliases  map[string]*Reference
	included map[*Group]struct{}
	log      *zap.Logger
}

func newContext(log *zap.Logger) *Context {
	return &Context{
		Flex:     flex.Empty(),
		refs:     make(map[string]*Reference),
		aliases:  make(map[string]*Reference),
		included: make(map[*Group]struct{}),
		log:      log,
	}
}

// Includes сообщает, применена ли группа.
func (c *Context) Includes(g *Group) bool {
	_, ok := c.included[g]
	return ok
}

// Lookup ищет ссылку по алиасу.
func (c *Context) Lookup(name string) (*Reference, bool) {
	r, ok := c.aliases[name]
	return r, ok
}

// Reference ищет ссылку по локальному имени.
func (c *Context) Reference(name string) (*Reference, bool) {
	r, ok := c.refs[name]
	return r, ok
}

// References - все ссылки по алфавиту имён.
func (c *Context) References() []*Reference {
	out := make([]*Reference, 0, len(c.refs))
	for _, name := range slices.Sorted(maps.Keys(c.refs)) {
		out = append(out, c.refs[name])
	}
	return out
}

// AliasNames - все алиасы контекста по алфавиту.
func (c *Context) AliasNames() []string {
	return slices.Sorted(maps.Keys(c.aliases))
}

// addGroup вливает группу g (и её include'ы) в контекст.
func (c *Context) addGroup(g *Group) {
	if c.Includes(g) {
		return
	}
	for _, inc := range g.includes {
		c.addGroup(inc)
	}

	c.Flex.Apply(g.flex)

	for _, a := range g.anchors {
		if a.env.State() == StateFailed {
			continue
		}
		c.mergeAnchor(a)
	}

	c.reindex()
	c.included[g] = struct{}{}
}

func (c *Context) mergeAnchor(a *anchor) {
	existing, ok := c.refs[a.name]
	if !ok || existing.Envelope.ID != a.env.ID {
		ref := &Reference{
			Name:     a.name,
			Envelope: a.env,
			Flex:     flex.Fallback(c.Flex),
			help:     a.help,
		}
		ref.Flex.Apply(a.flex)
		if a.aliases != nil {
			ref.Aliases = a.aliases.Clone()
		}
		c.refs[a.name] = ref
		return
	}

	existing.Flex.Apply(a.flex)
	if a.spec != nil {
		if existing.Aliases == nil {
			existing.Aliases = alias.New()
		}
		existing.Aliases.ApplySpec(a.spec)
	}
	if a.help != "" {
		existing.help = a.help
	}
}

// reindex пересобирает алиас → ссылка. Обход по алфавиту имён, при
// коллизии побеждает последний.
func (c *Context) reindex() {
	clear(c.aliases)
	for _, ref := range c.References() {
		if ref.Aliases == nil {
			continue
		}
		for _, name := range ref.Aliases.Names() {
			if prev, ok := c.aliases[name]; ok && prev != ref {
				c.log.Debug("alias collision",
					zap.String("alias", name),
					zap.String("previous", prev.Envelope.Origin),
					zap.String("winner", ref.Envelope.Origin))
			}
			c.aliases[name] = ref
		}
	}
}
