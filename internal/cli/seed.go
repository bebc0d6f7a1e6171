package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/eventnexus-go/internal/app"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
)

func newSeedCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load events, users and registrations into SurrealDB",
		Long: `Define the platform tables and insert the records of a fixture file.
Records whose id already exists are skipped, so a file can be seeded twice.

The file has top-level "events", "users" and "registrations" lists
(YAML or JSON), the same shape --source reads.

Examples:
  eventnexus seed fixtures.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			src, err := snapshot.LoadSource(args[0])
			if err != nil {
				return err
			}

			a, err := app.New(ctx, g.cfg, app.Options{ConnectDB: true, InitSchema: true, Logger: g.logger})
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer a.Close(ctx)

			stats, err := a.DB().Seed(ctx, src)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), defaultTheme.successStyle().Render(
				fmt.Sprintf("Seeded %d records (%d already present)", stats.Created, stats.Skipped)))
			return nil
		},
	}
}
