package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/bstardust/htgen/internal/logger"
	"github.com/bstardust/htgen/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().String("host", "", "Listen host")
	cmd.Flags().Int("port", 8080, "Listen port")
	cmd.Flags().Int64("max-upload-size", 20*1024*1024, "Maximum request body size in bytes")
	cmd.Flags().Float64("rate-limit", 0, "Requests per second allowed per client on /hashtags (0 disables)")
	cmd.Flags().Int("rate-burst", 5, "Burst size for the rate limit")
	cmd.Flags().String("upload-dir", "", "Directory to archive uploads into")

	_ = a.v.BindPFlag("SERVER_HOST", cmd.Flags().Lookup("host"))
	_ = a.v.BindPFlag("SERVER_PORT", cmd.Flags().Lookup("port"))
	_ = a.v.BindPFlag("MAX_UPLOAD_SIZE", cmd.Flags().Lookup("max-upload-size"))
	_ = a.v.BindPFlag("RATE_LIMIT_RPS", cmd.Flags().Lookup("rate-limit"))
	_ = a.v.BindPFlag("RATE_LIMIT_BURST", cmd.Flags().Lookup("rate-burst"))
	_ = a.v.BindPFlag("UPLOAD_DIR", cmd.Flags().Lookup("upload-dir"))

	return cmd
}

func runServe(ctx context.Context, a *app) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	t, closeModel, err := newTagger(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer closeModel()

	srv := server.New(a.cfg, t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Received interrupt signal, shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server exited")
	return nil
}
