//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/EgorLis/chatbot/internal/bot"
	"github.com/EgorLis/chatbot/internal/config"
)

// watchReload перезагружает конфиг по SIGHUP, пока ctx жив.
func watchReload(ctx context.Context, store *config.Store, b *bot.Bot) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, unix.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			b.Logger().Info("SIGHUP received, reloading")
			reload(store, b)
		}
	}
}
