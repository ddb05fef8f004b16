// Package config - декодированная конфигурация бота: адаптеры, mapping'и,
// группы и якоря слушателей. Загрузка из YAML - Store.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/EgorLis/chatbot/internal/selector"
)

const (
	FormDef = "def"
	FormRef = "ref"
)

const (
	AdapterConsole   = "console"
	AdapterWebsocket = "websocket"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Logging  Logging   `yaml:"logging" json:"logging"`
	Adapters []Adapter `yaml:"adapters,omitempty" json:"adapters,omitempty"`
	Mappings []Mapping `yaml:"mappings" json:"mappings"`
	Groups   []Group   `yaml:"groups" json:"groups"`
}

type Logging struct {
	Level  string   `yaml:"level,omitempty" json:"level,omitempty"`   // debug, info, warn, error
	Format string   `yaml:"format,omitempty" json:"format,omitempty"` // console, json
	Output []string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Adapter - протокольный адаптер. Поля кроме Type нужны только websocket.
type Adapter struct {
	Type         string        `yaml:"type" json:"type"`
	Name         string        `yaml:"name,omitempty" json:"name,omitempty"`
	URL          string        `yaml:"url,omitempty" json:"url,omitempty"`
	Service      string        `yaml:"service,omitempty" json:"service,omitempty"`
	ServiceName  string        `yaml:"service_name,omitempty" json:"service_name,omitempty"`
	Protocol     string        `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	PingInterval time.Duration `yaml:"ping_interval,omitempty" json:"ping_interval,omitempty"`

	// AckTimeout > 0 - Reply ждёт подтверждения от сервера.
	AckTimeout time.Duration `yaml:"ack_timeout,omitempty" json:"ack_timeout,omitempty"`
}

type Mapping struct {
	Selectors []selector.Spec `yaml:"selectors,omitempty" json:"selectors,omitempty"`
	Groups    []string        `yaml:"groups" json:"groups"`
}

type Group struct {
	Name      string         `yaml:"name" json:"name"`
	Include   []string       `yaml:"include,omitempty" json:"include,omitempty"`
	Flex      map[string]any `yaml:"flex,omitempty" json:"flex,omitempty"`
	Listeners []Anchor       `yaml:"listeners,omitempty" json:"listeners,omitempty"`
}

// Anchor - место слушателя в группе: определение (def) или ссылка (ref).
// Alias: nil - не задан, пустой список - заменить на пустой набор.
type Anchor struct {
	Form           string         `yaml:"form" json:"form"`
	Name           string         `yaml:"name" json:"name"`
	Help           string         `yaml:"help,omitempty" json:"help,omitempty"`
	Implementation string         `yaml:"implementation,omitempty" json:"implementation,omitempty"`
	Config         map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
	Flex           map[string]any `yaml:"flex,omitempty" json:"flex,omitempty"`
	Alias          []string       `yaml:"alias,omitempty" json:"alias,omitempty"`
}

// Validate проверяет только форму. Граф (циклы, ссылки, селекторы)
// проверяет scope.Build.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format)
	}

	for i, a := range c.Adapters {
		switch a.Type {
		case AdapterConsole:
		case AdapterWebsocket:
			if a.URL == "" {
				return fmt.Errorf("%w: adapters[%d]: websocket adapter needs url", ErrInvalid, i)
			}
		default:
			return fmt.Errorf("%w: adapters[%d]: unknown type %q", ErrInvalid, i, a.Type)
		}
	}

	for i, m := range c.Mappings {
		if len(m.Groups) == 0 {
			return fmt.Errorf("%w: mappings[%d]: no groups", ErrInvalid, i)
		}
	}

	for i, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("%w: groups[%d]: empty name", ErrInvalid, i)
		}
		for j, a := range g.Listeners {
			if a.Name == "" {
				return fmt.Errorf("%w: group %q: listeners[%d]: empty name", ErrInvalid, g.Name, j)
			}
			switch a.Form {
			case FormDef:
				if a.Implementation == "" {
					return fmt.Errorf("%w: group %q: listener %q: def needs implementation", ErrInvalid, g.Name, a.Name)
				}
			case FormRef:
			default:
				return fmt.Errorf("%w: group %q: listener %q: form must be def or ref, got %q", ErrInvalid, g.Name, a.Name, a.Form)
			}
		}
	}
	return nil
}

// DefaultInvocation - "!команда аргумент".
const DefaultInvocation = `^!(?<alias>\w+)(?: (?<argument>.*))?$`

// Default - стартовый конфиг для "chatbot init".
func Default() *Config {
	return &Config{
		Logging:  Logging{Level: "info", Format: "console"},
		Adapters: []Adapter{{Type: AdapterConsole}},
		Mappings: []Mapping{
			{
				Selectors: []selector.Spec{{Kind: "all"}},
				Groups:    []string{"default"},
			},
			{
				Selectors: []selector.Spec{{Kind: "permission", Params: map[string]any{"permission": "admin"}}},
				Groups:    []string{"admin"},
			},
		},
		Groups: []Group{
			{
				Name: "default",
				Flex: map[string]any{
					"dispatcher.invocation": DefaultInvocation,
					"dispatcher.verbose":    true,
				},
				Listeners: []Anchor{
					{Form: FormDef, Name: "help", Implementation: "help"},
					{Form: FormDef, Name: "echo", Implementation: "echo"},
					{Form: FormDef, Name: "choose", Implementation: "choose", Alias: []string{"+pick"}},
				},
			},
			{
				Name:    "admin",
				Include: []string{"default"},
				Listeners: []Anchor{
					{Form: FormDef, Name: "log", Implementation: "log"},
					{Form: FormRef, Name: "echo", Alias: []string{"+say?"}},
				},
			},
		},
	}
}
