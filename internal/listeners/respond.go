package listeners

import (
	"regexp"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/scope"
)

// Respond отвечает на обычные сообщения (не команды), совпавшие с pattern.
type Respond struct {
	scope.BaseListener
	re    *regexp.Regexp
	reply string
}

func (r *Respond) FromConfig(cfg *structpb.Struct) error {
	pattern, err := stringOpt(cfg, "pattern", "")
	if err != nil {
		return err
	}
	if pattern == "" {
		return scope.ListenerErrorf("respond: pattern is required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return scope.WrapListenerError(err, "respond: bad pattern")
	}
	reply, err := stringOpt(cfg, "reply", "")
	if err != nil {
		return err
	}
	if reply == "" {
		return scope.ListenerErrorf("respond: reply is required")
	}
	r.re, r.reply = re, reply
	return nil
}

func (r *Respond) OnMessage(msg chat.Message, isCommand bool) error {
	if isCommand {
		return nil
	}
	text := msg.Text()
	m := r.re.FindStringSubmatchIndex(text)
	if m == nil {
		return nil
	}
	out := r.re.ExpandString(nil, r.reply, text, m)
	return msg.Reply(string(out))
}
