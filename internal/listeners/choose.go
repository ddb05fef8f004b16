package listeners

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/EgorLis/chatbot/internal/scope"
)

// Choose выбирает n разных вариантов из аргумента.
type Choose struct {
	scope.BaseListener
	// intn подменяется в тестах.
	intn func(n int) int
}

func (c *Choose) Aliases() []string { return []string{"choose"} }

func (c *Choose) Help() string { return `choose a "b c" d [n=2]: picks at random` }

func (c *Choose) Execute(inv *scope.Invocation) error {
	options, kv := parseKV(splitArgs(inv.Argument))
	if len(options) == 0 {
		return scope.ListenerErrorf("choose: no options given")
	}

	n := 1
	if raw, ok := kv["n"]; ok {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return scope.ListenerErrorf("choose: n must be a positive number, got %q", raw)
		}
		n = min(v, len(options))
	}

	intn := c.intn
	if intn == nil {
		intn = rand.IntN
	}
	// частичный Фишер-Йетс
	for i := 0; i < n; i++ {
		j := i + intn(len(options)-i)
		options[i], options[j] = options[j], options[i]
	}
	return inv.Reply(strings.Join(options[:n], ", "))
}
