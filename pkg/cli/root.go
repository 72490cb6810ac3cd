// pkg/cli/root.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bstardust/htgen/internal/config"
	"github.com/bstardust/htgen/internal/logger"
)

// app carries state shared between the root command and its subcommands
type app struct {
	v       *viper.Viper
	envFile string
	cfg     *config.Config
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "htgen",
		Short:         "Generate hashtags for images with Gemini on Vertex AI",
		Long:          `htgen analyzes an image, its EXIF metadata and where it was taken, and asks a Gemini model for relevant hashtags. It runs as an HTTP service or from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", "", "Dotenv file to load (default .env in production, .env.dev otherwise)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))

	// Add commands
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newTagCommand(a))
	rootCmd.AddCommand(newExifCommand(a))
	rootCmd.AddCommand(newBatchCommand(a))

	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.envFile)
	if err != nil {
		return err
	}
	logger.SetJSON(cfg.Production())
	logger.SetLevel(cfg.LogLevel)
	a.cfg = cfg
	return nil
}
