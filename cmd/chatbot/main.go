package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EgorLis/chatbot/internal/adapter/console"
	"github.com/EgorLis/chatbot/internal/adapter/wsclient"
	"github.com/EgorLis/chatbot/internal/bot"
	"github.com/EgorLis/chatbot/internal/chat"
	"github.com/EgorLis/chatbot/internal/config"
	"github.com/EgorLis/chatbot/internal/listeners"
	"github.com/EgorLis/chatbot/internal/logging"
	"github.com/EgorLis/chatbot/internal/scope"
)

var (
	configPath string
	verbose    bool
	force      bool
	watch      bool
)

var rootCmd = &cobra.Command{
	Use:           "chatbot",
	Short:         "Scoped multi-protocol chat bot",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load the configuration and serve all configured adapters",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and build its scopes without starting anything",
	Args:  cobra.NoArgs,
	RunE:  checkConfig,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Args:  cobra.NoArgs,
	RunE:  initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "bot.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "force debug logging")
	runCmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when the configuration file changes")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	rootCmd.AddCommand(runCmd, checkCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// load читает конфиг и строит логгер по его секции logging.
func load(store *config.Store) (*config.Config, *zap.Logger, error) {
	cfg, err := store.Load()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%s not found, create one with `chatbot init`", store.Path())
	}
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func registry() *scope.Registry {
	reg := scope.NewRegistry()
	listeners.Register(reg)
	return reg
}

func runBot(cmd *cobra.Command, _ []string) error {
	store := config.NewStore(configPath)
	cfg, log, err := load(store)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	adapters, err := buildAdapters(cfg.Adapters, log)
	if err != nil {
		return err
	}

	b := bot.New(registry(), log)
	if err := b.Load(cfg); err != nil {
		return fmt.Errorf("load %s: %w", store.Path(), err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchReload(ctx, store, b)
	if watch {
		w, err := config.NewWatcher(store.Path(), config.DefaultDebounce, log)
		if err != nil {
			return err
		}
		go func() { _ = w.Run(ctx, func() { reload(store, b) }) }()
	}

	log.Info("running… press Ctrl+C to stop",
		zap.String("config", store.Path()), zap.Int("adapters", len(adapters)))
	if err := b.Run(ctx, adapters...); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped")
	return nil
}

// reload перечитывает файл и применяет его к работающему боту. Ошибка
// оставляет в силе прежнюю конфигурацию (или грязное состояние).
func reload(store *config.Store, b *bot.Bot) {
	log := b.Logger()
	cfg, err := store.Load()
	if err != nil {
		log.Error("reload: read config", zap.Error(err))
		return
	}
	if err := b.Load(cfg); err != nil {
		log.Error("reload failed", zap.Error(err), zap.Bool("dirty", b.Dirty()))
		return
	}
	log.Info("configuration reloaded", zap.String("config", store.Path()))
}

func buildAdapters(cfgs []config.Adapter, log *zap.Logger) ([]chat.Adapter, error) {
	if len(cfgs) == 0 {
		cfgs = []config.Adapter{{Type: config.AdapterConsole}}
	}
	out := make([]chat.Adapter, 0, len(cfgs))
	for i, ac := range cfgs {
		switch ac.Type {
		case config.AdapterConsole:
			out = append(out, console.New(os.Stdin, os.Stdout))
		case config.AdapterWebsocket:
			c, err := wsclient.New(ac, log.Named("ws"))
			if err != nil {
				return nil, fmt.Errorf("adapter #%d: %w", i, err)
			}
			out = append(out, c)
		default:
			return nil, fmt.Errorf("adapter #%d: unknown type %q", i, ac.Type)
		}
	}
	return out, nil
}

func checkConfig(cmd *cobra.Command, _ []string) error {
	cfg, log, err := load(config.NewStore(configPath))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	r, err := scope.Build(cfg.Mappings, cfg.Groups, registry(), log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, env := range r.Envelopes() {
		st := env.State()
		if st == scope.StateFailed {
			failed++
		}
		fmt.Fprintf(out, "%-8s %s\n", st, env.Origin)
	}
	fmt.Fprintf(out, "%d mappings, %d groups, %d listeners (%d failed)\n",
		len(cfg.Mappings), len(cfg.Groups), len(r.Envelopes()), failed)
	return nil
}

func initConfig(cmd *cobra.Command, _ []string) error {
	store := config.NewStore(configPath)
	if _, err := os.Stat(store.Path()); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
	}
	if err := store.Save(config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", store.Path())
	return nil
}
