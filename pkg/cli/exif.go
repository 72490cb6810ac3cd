package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/bstardust/htgen/internal/metadata"
)

func newExifCommand(a *app) *cobra.Command {
	var noGeocode bool

	cmd := &cobra.Command{
		Use:   "exif [flags] <image>",
		Short: "Print the metadata extracted from an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noGeocode {
				a.cfg.Geocode.Enabled = false
			}
			return runExif(cmd.Context(), newExtractor(a.cfg), args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&noGeocode, "no-geocode", false, "Skip the reverse geocoding lookup")

	return cmd
}

func runExif(ctx context.Context, e *metadata.Extractor, path string, out io.Writer) error {
	m, err := e.FromFile(ctx, path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
