package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/EgorLis/chatbot/internal/chat"
)

// Spec - декларативное описание селектора из конфига.
type Spec struct {
	Kind   string         `yaml:"kind" json:"kind"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// Build собирает селектор из Spec. Ошибки оборачивают ErrUnknownKind или
// ErrInvalidParams.
func Build(spec Spec) (Selector, error) {
	p := params(spec.Params)
	kind := strings.ToLower(strings.TrimSpace(spec.Kind))

	switch kind {
	case "all", "any":
		return All(), nil

	case "and", "or":
		children, err := p.specs("selectors")
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, fmt.Errorf("%w: %s needs at least one selector", ErrInvalidParams, kind)
		}
		sels := make([]Selector, 0, len(children))
		for i, c := range children {
			s, err := Build(c)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", kind, i, err)
			}
			sels = append(sels, s)
		}
		if kind == "and" {
			return And(sels...), nil
		}
		return Or(sels...), nil

	case "match":
		return buildMatch(p)

	case "protocol":
		name, err := p.requireString("protocol")
		if err != nil {
			return nil, err
		}
		return Protocol(name), nil

	case "permission":
		perm, err := p.requireString("permission")
		if err != nil {
			return nil, err
		}
		return Permission(perm), nil

	case "flag":
		name, err := p.requireString("flag")
		if err != nil {
			return nil, err
		}
		return Flag(name), nil

	case "nsfw":
		want := true
		if v, ok := p["nsfw"]; ok {
			b, isBool := v.(bool)
			if !isBool {
				return nil, fmt.Errorf("%w: nsfw must be a bool, got %T", ErrInvalidParams, v)
			}
			want = b
		}
		return NSFW(want), nil

	case "visible":
		user, err := p.requireString("user")
		if err != nil {
			return nil, err
		}
		return Visible(user), nil

	case "id":
		of, err := p.requireString("of")
		if err != nil {
			return nil, err
		}
		k, ok := chat.ParseKind(of)
		if !ok || k == chat.KindMessage {
			return nil, fmt.Errorf("%w: id: bad subject kind %q", ErrInvalidParams, of)
		}
		id, err := p.requireString("id")
		if err != nil {
			return nil, err
		}
		return ID(k, id), nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownKind, spec.Kind)
}

func buildMatch(p params) (Selector, error) {
	f, err := p.requireString("field")
	if err != nil {
		return nil, err
	}
	field := Field(strings.ToLower(f))
	if !field.valid() {
		return nil, fmt.Errorf("%w: match: unknown field %q", ErrInvalidParams, f)
	}

	value, hasValue, err := p.string("value")
	if err != nil {
		return nil, err
	}
	expr, hasRegex, err := p.string("regex")
	if err != nil {
		return nil, err
	}
	switch {
	case hasValue && hasRegex:
		return nil, fmt.Errorf("%w: match: value and regex are mutually exclusive", ErrInvalidParams)
	case hasValue:
		return Literal(field, value), nil
	case hasRegex:
		if v, ok := p["ignore_case"]; ok {
			ic, isBool := v.(bool)
			if !isBool {
				return nil, fmt.Errorf("%w: ignore_case must be a bool, got %T", ErrInvalidParams, v)
			}
			if ic {
				expr = "(?i)" + expr
			}
		}
		re, err := regexp.Compile(`^(?:` + expr + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w: match: %v", ErrInvalidParams, err)
		}
		return Pattern(field, re), nil
	}
	return nil, fmt.Errorf("%w: match needs value or regex", ErrInvalidParams)
}

type params map[string]any

func (p params) string(key string) (string, bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", false, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParams, key, v)
	}
	return s, true, nil
}

func (p params) requireString(key string) (string, error) {
	s, ok, err := p.string(key)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
	}
	return s, nil
}

// specs разбирает вложенные селекторы: []Spec при сборке из кода или
// []any из map'ов после yaml/json.
func (p params) specs(key string) ([]Spec, error) {
	switch v := p[key].(type) {
	case nil:
		return nil, nil
	case []Spec:
		return v, nil
	case []any:
		out := make([]Spec, 0, len(v))
		for i, item := range v {
			s, err := specFromAny(item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list, got %T", ErrInvalidParams, key, v)
	}
}

func specFromAny(v any) (Spec, error) {
	switch t := v.(type) {
	case Spec:
		return t, nil
	case map[string]any:
		kind, _ := t["kind"].(string)
		var ps map[string]any
		switch raw := t["params"].(type) {
		case nil:
		case map[string]any:
			ps = raw
		default:
			return Spec{}, fmt.Errorf("%w: params must be a map, got %T", ErrInvalidParams, raw)
		}
		return Spec{Kind: kind, Params: ps}, nil
	}
	return Spec{}, fmt.Errorf("%w: selector must be a map, got %T", ErrInvalidParams, v)
}
