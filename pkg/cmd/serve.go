package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/fileuploader/pkg/app"
	"github.com/yeisme/fileuploader/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the upload server (default command)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, v, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	l := log.Init(cfg.Log, cfg.Server.Debug)
	defer log.Close() //nolint:errcheck

	if used := v.ConfigFileUsed(); used != "" {
		l.Info().Str("file", used).Msg("config loaded")
	} else {
		l.Info().Msg("no config file found, using defaults and environment")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg, v)
	if err != nil {
		l.Error().Err(err).Msg("failed to initialize")
		return err
	}

	return a.Run(ctx)
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	addServeFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}
