package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/swatch/internal/config"
	"github.com/jmylchreest/swatch/internal/server"
	"github.com/jmylchreest/swatch/internal/summary"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the palette HTTP service",
	Long: `Run the HTTP service.

Endpoints:
  POST /summarize   multipart upload (field "file"), query k and max_side
  GET  /healthz     liveness check

Examples:
  # Listen on all interfaces with four workers
  swatch serve --addr :8000 --workers 4

  # JSON logs for a container
  swatch serve --log-json --log-level info`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8000)")
	serveCmd.Flags().Int("workers", 0, "concurrent palette extractions (default number of CPUs)")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "CORS origins allowed to call the API")
	serveCmd.Flags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	serveCmd.Flags().Bool("log-json", false, "log in JSON format")
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr())

	l, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}

	return serve(cmd.Context(), cfg, l, logger)
}

// serve runs the HTTP service on l until ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts it down gracefully.
func serve(ctx context.Context, cfg *config.Config, l net.Listener, logger hclog.Logger) error {
	summarizer := summary.New(cfg.SummaryConfig(), logger.Named("summary"))
	srv := server.New(cfg.ServerConfig(), summarizer, logger.Named("server"))

	var g run.Group
	g.Add(func() error {
		return srv.Serve(l)
	}, func(error) {
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err := g.Run()

	var sigErr run.SignalError
	switch {
	case errors.As(err, &sigErr):
		logger.Info("received signal", "signal", sigErr.Signal.String())
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}
