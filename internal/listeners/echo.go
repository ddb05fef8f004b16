package listeners

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/EgorLis/chatbot/internal/scope"
)

type Echo struct {
	scope.BaseListener
	prefix string
}

func (e *Echo) FromConfig(cfg *structpb.Struct) error {
	p, err := stringOpt(cfg, "prefix", "")
	if err != nil {
		return err
	}
	e.prefix = p
	return nil
}

func (e *Echo) Aliases() []string { return []string{"echo"} }

func (e *Echo) Help() string { return "echo <text>: repeats the text back" }

func (e *Echo) Execute(inv *scope.Invocation) error {
	if inv.Argument == "" {
		return inv.Reply("nothing to echo")
	}
	return inv.Reply(e.prefix + inv.Argument)
}
