// Package flex - цепочечный key→value конфиг групп и слушателей.
//
// Conf хранит ссылку на резолвер одного из трёх видов:
//   - leaf - неизменяемая карта значений;
//   - chained - front поверх back;
//   - live - живая ссылка на другой Conf (читает его текущий резолвер при
//     каждом поиске).
//
// Операции:
//   - c.Apply(o) - ставит текущий резолвер o перед резолвером c (мутирует c);
//   - Fallback(o) - новый Conf, всегда читающий o "вживую";
//   - Snapshot(o) - новый Conf, замороженный на резолвере o в момент вызова.
package flex

import (
	"maps"
	"sync"
)

type kind uint8

const (
	kindLeaf kind = iota
	kindChained
	kindLive
)

type resolver struct {
	kind   kind
	values map[string]any // leaf
	front  *resolver      // chained
	back   *resolver      // chained
	ref    *Conf          // live
}

var emptyLeaf = &resolver{kind: kindLeaf}

func (r *resolver) lookup(key string) (any, bool) {
	for r != nil {
		switch r.kind {
		case kindLeaf:
			v, ok := r.values[key]
			return v, ok
		case kindChained:
			if v, ok := r.front.lookup(key); ok {
				return v, true
			}
			r = r.back
		case kindLive:
			r = r.ref.current()
		default:
			return nil, false
		}
	}
	return nil, false
}

type Conf struct {
	mu sync.RWMutex
	r  *resolver
}

// New - Conf поверх копии values.
func New(values map[string]any) *Conf {
	if len(values) == 0 {
		return Empty()
	}
	return &Conf{r: &resolver{kind: kindLeaf, values: maps.Clone(values)}}
}

func Empty() *Conf {
	return &Conf{r: emptyLeaf}
}

// Fallback - новый Conf, делегирующий все поиски в other на момент поиска.
func Fallback(other *Conf) *Conf {
	return &Conf{r: &resolver{kind: kindLive, ref: other}}
}

// Snapshot - новый Conf с резолвером other, зафиксированным сейчас.
func Snapshot(other *Conf) *Conf {
	return &Conf{r: other.current()}
}

func (c *Conf) current() *resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.r
}

// Apply ставит other перед c: дальнейшие поиски сначала смотрят в other.
func (c *Conf) Apply(other *Conf) {
	if other == nil || other == c {
		return
	}
	front := other.current()
	if front == emptyLeaf {
		return
	}
	c.mu.Lock()
	c.r = &resolver{kind: kindChained, front: front, back: c.r}
	c.mu.Unlock()
}

func (c *Conf) Lookup(key string) (any, bool) {
	return c.current().lookup(key)
}
