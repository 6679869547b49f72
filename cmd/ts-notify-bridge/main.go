package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jimsnab/go-cmdline"
	"github.com/jimsnab/go-lane"
	"github.com/joho/godotenv"
	"github.com/tsnotify/ts-notify-bridge/internal/biz"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
	"github.com/tsnotify/ts-notify-bridge/internal/conf"
	"github.com/tsnotify/ts-notify-bridge/internal/data"
	"github.com/tsnotify/ts-notify-bridge/internal/server"
)

func main() {
	cl := cmdline.NewCommandLine()

	cl.RegisterCommand(
		mainHandler,
		"~ [<string-config>]?Relays TeamSpeak client joins and leaves to a chat. Override default configure file location with <config>.",
	)

	args := os.Args[1:] // exclude executable name in os.Args[0]
	err := cl.Process(args)
	if err != nil {
		cl.Help(err, "ts-notify-bridge", args)
		os.Exit(2)
	}
}

func mainHandler(args cmdline.Values) error {
	l := lane.NewLogLane(context.Background())

	if err := godotenv.Load(); err != nil {
		l.Debug("no .env file found, using environment variables")
	}

	path := args["config"].(string)
	if path == "" {
		path = conf.DefaultPath
	}
	cfg, err := conf.Load(path)
	if err != nil {
		l.Errorf("invalid config: %v", err)
		os.Exit(1)
	}
	setLogLevel(l, cfg.Misc.LogLevel)

	if err := run(l, cfg); err != nil {
		l.Errorf("%v", err)
		os.Exit(1)
	}
	return nil
}

func run(l lane.Lane, cfg *conf.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// register before connecting so an early interrupt is not lost
	sigs := make(chan os.Signal, 10)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	repos, err := data.NewRepositories(ctx, l, cfg)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer repos.Query.Close()
	if repos.History != nil {
		defer repos.History.Close()
		logLatest(ctx, l, repos)
	}

	ucs := biz.NewUsecases(l.Derive(), cfg.Server.IgnoreUser)

	relay := server.NewRelay(l, repos.Query, repos.Notify, repos.History, ucs.Classifier, server.RelayOptions{
		Interval:  cfg.Misc.IntervalDuration(),
		QueueSize: cfg.Misc.QueueSize,
		Keepalive: cfg.Misc.KeepaliveDuration(),
	})
	coordinator := server.NewShutdownCoordinator(l, sigs, cancel, os.Exit)

	l.Infof("relaying %s:%d server %d", cfg.RawQuery.Server, cfg.RawQuery.Port, cfg.Server.ServerID)
	relay.Start(ctx)
	return coordinator.Wait(relay)
}

func logLatest(ctx context.Context, l lane.Lane, repos *data.Repositories) {
	latest, err := repos.History.Latest(ctx)
	if err != nil {
		l.Warnf("read event history: %v", err)
		return
	}
	if latest == nil {
		l.Info("event history is empty")
		return
	}
	l.Infof("last relayed event: %s %s(%d) at %s",
		latest.Kind, latest.Nickname, latest.ClientID, latest.OccurredAt.Local().Format(domain.TimeLayout))

	if count, err := repos.History.CountSince(ctx, time.Now().Add(-24*time.Hour)); err == nil {
		l.Infof("%d events relayed in the last 24h", count)
	}
}

func setLogLevel(l lane.Lane, level string) {
	switch strings.ToLower(level) {
	case "trace":
		l.SetLogLevel(lane.LogLevelTrace)
	case "debug":
		l.SetLogLevel(lane.LogLevelDebug)
	case "warn":
		l.SetLogLevel(lane.LogLevelWarn)
	case "error":
		l.SetLogLevel(lane.LogLevelError)
	default:
		l.SetLogLevel(lane.LogLevelInfo)
	}
}
