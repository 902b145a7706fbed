package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nowplaybot/nowplay/cli"
	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/internal/daemon/engine"
	"github.com/nowplaybot/nowplay/internal/daemon/pidfile"
	"github.com/nowplaybot/nowplay/internal/daemon/server"
	"github.com/nowplaybot/nowplay/internal/daemon/store"
	"github.com/nowplaybot/nowplay/internal/dispatch"
	"github.com/nowplaybot/nowplay/internal/metrics"
	"github.com/nowplaybot/nowplay/internal/pp"
	"github.com/nowplaybot/nowplay/internal/twitch"
	"github.com/nowplaybot/nowplay/internal/unifier"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/daemon"
	"github.com/nowplaybot/nowplay/pkg/paths"
)

// NewDaemonCmd returns the daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the nowplay daemon",
		Long:  "The daemon tracks the running osu! client and answers chat commands.",
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long:  "Start the nowplay daemon in foreground mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("nowplayd")

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				if errors.GetCode(err) != errors.ErrCodeConfigNotFound {
					return fmt.Errorf("failed to load config: %w", err)
				}
				logger.Info("No config file found, using defaults")
				cfg = &config.Config{}
				cfg.SetDefaults()
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to create state directories: %w", err)
			}
			pidPath := paths.PidFilePath()
			sockPath := paths.SocketPath()

			// 1. Acquire Lock
			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			// 2. Setup Store and Engine
			st := store.New()
			eng := engine.New(st, logger)

			calc := pp.NewExecCalculator(cfg.Osu.PPCommand)
			mx := metrics.New(calc)

			eng.Register(unifier.New(cfg.Osu))
			eng.Register(metrics.NewWarmer(mx))

			// 3. Chat transport, when twitch credentials are configured
			chatEnabled := cfg.Twitch != nil && cfg.Twitch.Token != ""
			var dispatcher *dispatch.Dispatcher
			if chatEnabled {
				dispatcher = dispatch.New(cfg.Commands, st, mx, nil, cfg.Twitch.CooldownDuration())
				transport := twitch.New(cfg.Twitch, dispatcher)
				dispatcher.SetTransport(transport)
				eng.Register(transport)
			} else {
				logger.Info("No twitch credentials configured, chat disabled")
			}

			// 4. Config hot reload
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if cfg.Daemon == nil || cfg.Daemon.ConfigWatch == nil || *cfg.Daemon.ConfigWatch {
				debounce := 100
				if cfg.Daemon != nil && cfg.Daemon.ConfigDebounceMs > 0 {
					debounce = cfg.Daemon.ConfigDebounceMs
				}
				configFile, _ := cli.InitConfig(cli.GetOptions(cmd).ConfigFile)
				watcher, err := daemon.NewConfigWatcher(configFile, debounce, func(file string) {
					reloaded, err := cli.LoadConfig(cmd)
					if err != nil {
						logger.WithError(err).Warn("Config reload failed, keeping previous config")
						return
					}
					if dispatcher != nil {
						dispatcher.SetCommands(reloaded.Commands)
					}
					st.BroadcastConfigReload(file)
					logger.Info("Config reloaded")
				})
				if err != nil {
					logger.WithError(err).Warn("Config watcher unavailable")
				} else {
					go watcher.Start(ctx)
				}
			}

			// 5. Setup Server with engine
			srv := server.New(logger)
			srv.SetEngine(eng)
			srv.SetRunningConfig(&server.RunningConfig{
				PollInterval: cfg.Osu.PollIntervalDuration(),
				Client:       cfg.Osu.Client,
				CommandCount: len(cfg.Commands),
				ChatEnabled:  chatEnabled,
				StartedAt:    time.Now(),
			})

			// 6. Handle Signals
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-stop
				logger.Info("Received stop signal")
				cancel()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}

				// Explicitly release pidfile before exit in signal handler
				_ = pidfile.Release(pidPath)
				os.Exit(0)
			}()

			// 7. Start Engine in background
			go eng.Start(ctx)

			// 8. Start Server (Blocking)
			logger.WithField("pid", os.Getpid()).Info("Starting daemon")
			if err := srv.ListenAndServe(sockPath); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)

			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if running {
				fmt.Printf("Running (PID: %d)\nSocket: %s\n", pid, paths.SocketPath())
			} else {
				fmt.Println("Stopped")
				os.Exit(1) // Return non-zero for stopped state (useful for scripts)
			}
			return nil
		},
	}
}
