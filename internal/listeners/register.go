package listeners

import "github.com/EgorLis/chatbot/internal/scope"

const (
	IDEcho    = "echo"
	IDHelp    = "help"
	IDChoose  = "choose"
	IDRespond = "respond"
	IDLog     = "log"
)

func Register(reg *scope.Registry) {
	reg.Register(IDEcho, func() scope.Listener { return &Echo{} })
	reg.Register(IDHelp, func() scope.Listener { return &Help{} })
	reg.Register(IDChoose, func() scope.Listener { return &Choose{} })
	reg.Register(IDRespond, func() scope.Listener { return &Respond{} })
	reg.Register(IDLog, func() scope.Listener { return &Log{} })
}
