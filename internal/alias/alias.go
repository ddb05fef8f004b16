// Package alias - имена, под которыми команда вызывается в чате.
//
// В конфиге набор алиасов задаётся плоским списком строк одной из двух форм:
//   - замена: "echo", "say?" (или пустой список) - унаследованные алиасы
//     сбрасываются;
//   - инкремент: "+echo", "-say", "+shout?" - правка унаследованного набора.
//
// Хвостовой "?" скрывает алиас из help, но вызывать его по-прежнему можно.
// Смешивать формы в одном списке нельзя.
package alias

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
)

var (
	// ErrMixedSpec - в одном списке есть и "+/-", и простые имена.
	ErrMixedSpec = errors.New("alias spec mixes replacement and incremental entries")

	// ErrInvalidName - пустое имя или имя с пробелами.
	ErrInvalidName = errors.New("invalid alias name")
)

type Op uint8

const (
	OpAdd Op = iota
	OpRemove
)

type Entry struct {
	Name    string
	Op      Op
	Exposed bool
}

// Spec - разобранный список: Replace либо набор инкрементальных операций.
// В форме замены все Entry имеют OpAdd.
type Spec struct {
	Replace bool
	Entries []Entry
}

// Parse разбирает список из конфига. nil означает "алиасы не заданы" и даёт
// nil без ошибки; пустой (но не nil) список - замену на пустой набор.
func Parse(raw []string) (*Spec, error) {
	if raw == nil {
		return nil, nil
	}
	spec := &Spec{Entries: make([]Entry, 0, len(raw))}
	plain, incremental := 0, 0

	for _, item := range raw {
		s := strings.TrimSpace(item)
		e := Entry{Op: OpAdd, Exposed: true}
		switch {
		case strings.HasPrefix(s, "+"):
			incremental++
			s = s[1:]
		case strings.HasPrefix(s, "-"):
			incremental++
			e.Op = OpRemove
			s = s[1:]
		default:
			plain++
		}
		if strings.HasSuffix(s, "?") {
			e.Exposed = false
			s = strings.TrimSuffix(s, "?")
		}
		if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, item)
		}
		e.Name = s
		spec.Entries = append(spec.Entries, e)
	}

	if plain > 0 && incremental > 0 {
		return nil, fmt.Errorf("%w: %q", ErrMixedSpec, raw)
	}
	spec.Replace = incremental == 0
	return spec, nil
}

type entry struct {
	exposed bool
	present bool
}

// Set - материализованный набор алиасов. Удалённые записи остаются в карте
// с present=false.
type Set struct {
	entries     map[string]entry
	replacement bool
}

func New() *Set {
	return &Set{entries: map[string]entry{}}
}

// FromNames - набор по умолчанию: все имена видимы, формы замены нет.
func FromNames(names ...string) *Set {
	s := New()
	for _, n := range names {
		s.entries[n] = entry{exposed: true, present: true}
	}
	return s
}

// FromSpec материализует Spec; nil даёт пустой инкрементальный набор.
func FromSpec(spec *Spec) *Set {
	s := New()
	if spec == nil {
		return s
	}
	s.replacement = spec.Replace
	for _, e := range spec.Entries {
		s.entries[e.Name] = entry{exposed: e.Exposed, present: e.Op == OpAdd}
	}
	return s
}

// Apply накладывает other поверх s. Если other - замена, s сначала
// очищается и сам становится заменой.
func (s *Set) Apply(other *Set) {
	if other == nil {
		return
	}
	if other.replacement {
		clear(s.entries)
		s.replacement = true
	}
	maps.Copy(s.entries, other.entries)
}

func (s *Set) ApplySpec(spec *Spec) { s.Apply(FromSpec(spec)) }

func (s *Set) Clone() *Set {
	return &Set{entries: maps.Clone(s.entries), replacement: s.replacement}
}

// Replacement сообщает, что в истории набора была замена.
func (s *Set) Replacement() bool { return s.replacement }

// Get возвращает присутствующие алиасы: имя → видимость.
func (s *Set) Get() map[string]bool {
	out := make(map[string]bool, len(s.entries))
	for name, e := range s.entries {
		if e.present {
			out[name] = e.exposed
		}
	}
	return out
}

// Names - присутствующие алиасы по алфавиту.
func (s *Set) Names() []string {
	return slices.Sorted(maps.Keys(s.Get()))
}

// Exposed - присутствующие и видимые алиасы по алфавиту.
func (s *Set) Exposed() []string {
	var out []string
	for name, exposed := range s.Get() {
		if exposed {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
