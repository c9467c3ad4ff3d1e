package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-pospf/pospf/config"
	"github.com/go-pospf/pospf/engine"
	"github.com/go-pospf/pospf/iface"
	"github.com/go-pospf/pospf/rib"
	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

// Process exit codes, per spec §6: 0 normal, 1 configuration error, 2
// socket bind failure.
const (
	exitConfigError = 1
	exitSocketBind  = 2
)

var (
	logPath     string
	metricsAddr string
)

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Run the router",
	GroupID: "run",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		log := buildLogger(verbose, logPath)

		cfg, err := config.Load(configPath, func(msg string, args ...any) { log.Warn(msg, args...) })
		if err != nil {
			log.Error("failed to load config", "err", err)
			os.Exit(exitConfigError)
		}
		if cfg.RouterId == "" {
			if hostname, hostErr := os.Hostname(); hostErr == nil {
				cfg.RouterId = hostname
			}
		}
		cfg.MetricsAddr = metricsAddr

		key, err := cfg.SharedKey()
		if err != nil {
			log.Error("failed to decode shared key", "err", err)
			os.Exit(exitConfigError)
		}

		// an unresolvable interface is a configuration problem, not a socket
		// bind failure, so it still maps to exitConfigError.
		ifaces, err := iface.Build(cfg.Interfaces, log)
		if err != nil {
			log.Error("failed to resolve interfaces", "err", err)
			os.Exit(exitConfigError)
		}

		backend := rib.NewNetlinkBackend()
		if err := engine.Run(context.Background(), cfg, key, ifaces, backend, log); err != nil {
			log.Error("router exited with error", "err", err)
			var sockErr *engine.SocketError
			if errors.As(err, &sockErr) {
				os.Exit(exitSocketBind)
			}
			os.Exit(exitConfigError)
		}
	},
}

func buildLogger(verbose bool, logPath string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{Level: level}),
	}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err == nil {
			handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		} else {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logPath, err)
		}
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("verbose", "v", false, "verbose debug logging")
	runCmd.Flags().StringVar(&logPath, "log-file", "", "additionally write logs to this file")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose prometheus metrics on this address (disabled if empty)")
}
