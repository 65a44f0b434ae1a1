package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"golang.org/x/sync/errgroup"

	hivelog "github.com/coopermor/hive/cmd/hive/log"
	"github.com/coopermor/hive/internal/config"
	"github.com/coopermor/hive/internal/event"
	"github.com/coopermor/hive/internal/fleet"
	"github.com/coopermor/hive/internal/proto"
	"github.com/coopermor/hive/internal/remote/discord"
	ngrokremote "github.com/coopermor/hive/internal/remote/ngrok"
	"github.com/coopermor/hive/internal/remote/telegram"
	"github.com/coopermor/hive/internal/roster"
	"github.com/coopermor/hive/internal/server"
	"github.com/coopermor/hive/internal/session"
)

// wrapWithRecover wraps a function with panic recovery logic
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := debug.Stack()
				errMsg := fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, stackTrace)
				logger.Error(errMsg)
				hivelog.FlushLog()
			}
		}()
		return f()
	}
}

func main() {
	err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err.Error())
		return
	}

	logger, err := hivelog.NewLogger(config.Hive.Debug.Log, config.Hive.LogSaveDirectory, "")
	if err != nil {
		log.Fatalf("Error starting logger: %s", err.Error())
	}
	defer hivelog.FlushAndClose()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	eventListener := event.NewListener(logger)

	store, err := roster.NewStore(config.Hive)
	if err != nil {
		logger.Error("Error opening roster store", slog.Any("error", err))
		return
	}
	defer store.Close()

	manager := fleet.NewManager(logger, proto.NewBridgeDialer(logger), session.NewClock())

	srv, err := server.New(logger, manager, store)
	if err != nil {
		log.Fatalf("Error starting local server: %s", err.Error())
	}
	eventListener.Register(srv.HandleEvent)

	port := config.Hive.Server.Port

	var ngrokTunnel *ngrokremote.Tunnel
	if config.Hive.Ngrok.Enabled {
		if config.Hive.Ngrok.Authtoken == "" && os.Getenv("NGROK_AUTHTOKEN") == "" {
			logger.Warn("ngrok enabled but no authtoken set; skipping tunnel start")
		} else {
			ngrokTunnel, err = ngrokremote.Start(ctx, logger, port)
			if err != nil {
				logger.Error("ngrok tunnel failed to start", slog.Any("error", err))
			}
		}
	}

	if config.Hive.Discord.Enabled {
		discordBot, err := discord.NewBot(config.Hive.Discord.Token, config.Hive.Discord.ChannelID, manager)
		if err != nil {
			logger.Error("Discord could not been initialized", slog.Any("error", err))
			return
		}

		eventListener.Register(discordBot.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			return discordBot.Start(ctx)
		}))
	}

	if config.Hive.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(config.Hive.Telegram.Token, config.Hive.Telegram.ChatID, logger, manager)
		if err != nil {
			logger.Error("Telegram could not been initialized", slog.Any("error", err))
			return
		}

		eventListener.Register(telegramBot.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			defer telegramBot.Close()
			return telegramBot.Start(ctx)
		}))
	}

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return srv.Listen(port)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return eventListener.Listen(ctx)
	}))

	for _, name := range config.Hive.AutoConnect {
		botName := name
		g.Go(wrapWithRecover(logger, func() error {
			if err := manager.Connect(ctx, botName); err != nil {
				logger.Error("Error auto connecting bot",
					slog.String("bot", botName),
					slog.Any("error", err),
				)
			}
			return nil
		}))
	}

	g.Go(wrapWithRecover(logger, func() error {
		<-ctx.Done()
		logger.Info("Hive shutting down...")
		cancel()
		manager.StopAll()
		err = srv.Stop()
		if err != nil {
			logger.Error("error stopping local server", slog.Any("error", err))
		}
		if ngrokTunnel != nil {
			if closeErr := ngrokTunnel.Close(); closeErr != nil {
				logger.Error("error stopping ngrok tunnel", slog.Any("error", closeErr))
			}
		}

		return err
	}))

	err = g.Wait()
	if err != nil {
		cancel()
		logger.Error("Error running Hive", slog.Any("error", err))
		return
	}

	hivelog.FlushAndClose()
}
