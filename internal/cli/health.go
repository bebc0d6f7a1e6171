package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

func newHealthCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the retrieval backend in use",
		Long: `Report whether the engine is up and which retrieval backend it uses:
"dense" when the embedding backend initialized, "sparse" otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var h models.Health
			if g.remote() {
				resp, err := g.client().Health(ctx)
				if err != nil {
					return err
				}
				h = *resp
			} else {
				a, err := g.localApp(ctx)
				if err != nil {
					return err
				}
				defer a.Close(ctx)
				h = a.Chat.Health()
			}

			out := cmd.OutOrStdout()
			status := defaultTheme.successStyle().Render("ok")
			if !h.OK {
				status = defaultTheme.errorStyle().Render("down")
			}
			fmt.Fprintf(out, "Status:  %s\n", status)
			fmt.Fprintf(out, "Backend: %s\n", h.Backend)
			return nil
		},
	}
}
