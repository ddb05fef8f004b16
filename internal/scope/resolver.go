package scope

import (
	"go.uber.org/zap"

	"github.com/EgorLis/chatbot/internal/alias"
	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/flex"
	"github.com/EgorLis/chatbot/internal/selector"
)

// Group - скомпилированная группа. Неизменяема после Build.
type Group struct {
	Name string

	includes []*Group
	flex     *flex.Conf
	anchors  []*anchor
}

type anchor struct {
	name    string
	help    string
	env     *Envelope
	flex    *flex.Conf
	aliases *alias.Set // nil у не-команд
	// spec - собственная правка алиасов якоря; при слиянии с той же
	// ссылкой применяется только она
	spec *alias.Spec
}

// Mapping - селекторы (все должны совпасть) и группы, которые включаются.
type Mapping struct {
	selectors []selector.Selector
	groups    []*Group
}

// Matches вычисляет конъюнкцию селекторов по сообщению. Без побочных эффектов.
func (m *Mapping) Matches(msg chat.Message) bool {
	s := chat.OfMessage(msg)
	for _, sel := range m.selectors {
		if !sel.Match(s) {
			return false
		}
	}
	return true
}

// Resolver - все mapping'и и группы одной конфигурации.
type Resolver struct {
	mappings  []*Mapping
	groups    map[string]*Group
	envelopes []*Envelope
	log       *zap.Logger
}

// Resolve строит Context для события: mapping'и в порядке объявления,
// группы каждого подходящего - в порядке перечисления.
func (r *Resolver) Resolve(msg chat.Message) *Context {
	ctx := newContext(r.log)
	for _, m := range r.mappings {
		if !m.Matches(msg) {
			continue
		}
		for _, g := range m.groups {
			ctx.addGroup(g)
		}
	}
	return ctx
}

// Envelopes - все определённые слушатели в порядке создания, включая
// выброшенные (StateFailed).
func (r *Resolver) Envelopes() []*Envelope {
	out := make([]*Envelope, len(r.envelopes))
	copy(out, r.envelopes)
	return out
}

func (r *Resolver) Group(name string) (*Group, bool) {
	g, ok := r.groups[name]
	return g, ok
}
