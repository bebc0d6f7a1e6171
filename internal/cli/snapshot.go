package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

func newSnapshotCmd(g *globals) *cobra.Command {
	var (
		format     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export the platform snapshot",
		Long: `Build the platform snapshot (events, attendees and FAQ) and write it as
JSON or YAML. The output can be passed back with --snapshot.

Examples:
  eventnexus snapshot --db -o snapshot.json
  eventnexus snapshot --source fixtures.yaml --format yaml
  eventnexus snapshot --server http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (use json or yaml)", format)
			}

			snap, err := loadSnapshot(ctx, g)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := writeSnapshot(out, snap, format); err != nil {
				return err
			}

			if outputFile != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), defaultTheme.successStyle().Render(
					fmt.Sprintf("Wrote %d events, %d attendees, %d FAQ entries to %s",
						len(snap.Events), len(snap.Attendees), len(snap.FAQ), outputFile)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write output to file")
	return cmd
}

func writeSnapshot(w io.Writer, snap models.Snapshot, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return writeJSONTo(w, snap)
}
