package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/daemon"
	"github.com/1broseidon/tilestate/internal/hotkeys"
	"github.com/1broseidon/tilestate/internal/ipc"
	"github.com/1broseidon/tilestate/internal/platform"
	"github.com/1broseidon/tilestate/internal/runtimepath"
)

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "daemon [--config PATH] [--display NAME]",
		"Run the daemon: manage window state through transactions and serve IPC.")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/tilestate/config.yaml)")
	display := fs.String("display", "", "X display to connect to (default: config, then $DISPLAY)")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	path := *configPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		path = p
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config
	if *display != "" {
		cfg.Display = *display
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	logger.Info("configuration loaded", "path", path, "files", len(res.Files),
		"layout", cfg.DefaultLayout, "transaction_timeout", cfg.TransactionTimeout())

	if err := serveDaemon(cfg, path, logger); err != nil {
		logger.Error("daemon stopped", "error", err)
		return 1
	}
	return 0
}

func serveDaemon(cfg *config.Config, configPath string, logger *slog.Logger) error {
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		return fmt.Errorf("connect to display: %w", err)
	}
	defer backend.Disconnect()

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := daemon.NewLoop(logger)
	session := daemon.NewSession(daemon.SessionOptions{
		Backend:   backend,
		Config:    cfg,
		Scheduler: loop,
		Post:      func(fn func()) { loop.Post(fn) },
		Logger:    logger,
	})
	ctrl := daemon.NewController(loop, session, configPath, logger)
	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.ReconcileInterval(),
		Logger:   logger,
	}, ctrl)

	watcher := config.NewWatcher(configPath, logger)
	server := ipc.NewServer(socketPath, ctrl, logger)

	g, gctx := errgroup.WithContext(ctx)
	keys, err := hotkeys.NewHandler(gctx, backend, ctrl, logger)
	if err != nil {
		return err
	}
	bindKeys(keys, cfg, logger)
	ctrl.OnApply(func(cfg *config.Config) { bindKeys(keys, cfg, logger) })

	watcher.OnChange(func(res *config.LoadResult) {
		if err := ctrl.ApplyConfig(gctx, res.Config); err != nil {
			logger.Error("failed to apply reloaded config", "error", err)
		}
	})

	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error {
		reconciler.Run(gctx)
		return nil
	})
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return server.Serve(gctx) })
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				logger.Info("received SIGHUP, reloading config")
				if err := ctrl.Reload(gctx); err != nil {
					logger.Error("config reload failed", "error", err)
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		backend.Stop()
		return nil
	})

	// The event loop blocks reading from the X connection, so it is not
	// waited for; the deferred Disconnect ends it.
	go func() {
		backend.EventLoop()
		if gctx.Err() == nil {
			logger.Error("X event loop exited")
			stop()
		}
	}()
	logger.Info("tilestate daemon started", "socket", socketPath)

	err = g.Wait()
	logger.Info("shutting down tilestate daemon")
	return err
}

func bindKeys(keys *hotkeys.Handler, cfg *config.Config, logger *slog.Logger) {
	actions, err := cfg.Actions()
	if err != nil {
		logger.Error("invalid key bindings", "error", err)
		return
	}
	if err := keys.Bind(actions); err != nil {
		logger.Warn("some key bindings were not registered", "error", err)
	}
}
