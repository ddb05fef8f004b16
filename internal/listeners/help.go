package listeners

import (
	"fmt"
	"slices"
	"strings"

	"github.com/EgorLis/chatbot/internal/scope"
)

// Help показывает то, что доступно в текущем контексте. Скрытые алиасы
// не перечисляются, но справку по ним получить можно.
type Help struct {
	scope.BaseListener
}

func (h *Help) Aliases() []string { return []string{"help"} }

func (h *Help) Help() string { return "help [command]: lists commands or describes one" }

func (h *Help) Execute(inv *scope.Invocation) error {
	if inv.Argument != "" {
		return inv.Reply(describe(inv.Context, strings.Fields(inv.Argument)[0]))
	}

	var names []string
	for _, ref := range inv.Context.References() {
		if ref.Aliases == nil {
			continue
		}
		names = append(names, ref.Aliases.Exposed()...)
	}
	if len(names) == 0 {
		return inv.Reply("no commands available here")
	}
	slices.Sort(names)
	return inv.Reply("commands: " + strings.Join(slices.Compact(names), ", "))
}

func describe(ctx *scope.Context, name string) string {
	ref, ok := ctx.Lookup(name)
	if !ok {
		return fmt.Sprintf("unknown command %q", name)
	}
	text := ref.Help()
	if text == "" {
		text = "no description"
	}
	lines := []string{name + ": " + text}
	if others := otherAliases(ref, name); len(others) > 0 {
		lines = append(lines, "also: "+strings.Join(others, ", "))
	}
	return strings.Join(lines, "\n")
}

func otherAliases(ref *scope.Reference, name string) []string {
	var out []string
	for _, a := range ref.Aliases.Exposed() {
		if a != name {
			out = append(out, a)
		}
	}
	return out
}
