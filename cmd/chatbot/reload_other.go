//go:build !unix

package main

import (
	"context"

	"github.com/EgorLis/chatbot/internal/bot"
	"github.com/EgorLis/chatbot/internal/config"
)

// Без SIGHUP перезагрузка недоступна.
func watchReload(context.Context, *config.Store, *bot.Bot) {}
