package listeners

import (
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/scope"
)

// Log пишет входящие сообщения в лог бота.
type Log struct {
	scope.BaseListener
	commands bool
	log      *zap.Logger
}

func (l *Log) FromConfig(cfg *structpb.Struct) error {
	v, err := boolOpt(cfg, "commands", true)
	if err != nil {
		return err
	}
	l.commands = v
	return nil
}

func (l *Log) Init(h scope.Handle, _ *scope.Resolver) error {
	l.log = h.Logger().Named("chatlog")
	return nil
}

func (l *Log) OnMessage(msg chat.Message, isCommand bool) error {
	if isCommand && !l.commands {
		return nil
	}
	fields := []zap.Field{
		zap.String("service", msg.Service().ID()),
		zap.String("user", msg.User().Name()),
		zap.Bool("command", isCommand),
	}
	if ch := msg.Channel(); ch != nil {
		fields = append(fields, zap.String("channel", ch.Name()))
	}
	l.log.Info(msg.Text(), fields...)
	return nil
}
