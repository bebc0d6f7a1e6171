package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

func newAskCmd(g *globals) *cobra.Command {
	var (
		stream bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask a question about events, attendees or the platform",
		Long: `Ask a question and get an answer grounded in the platform snapshot.

The answer is written by the configured LLM when one is available and is
otherwise built from the best matching passages. Sources and a confidence
score are printed after the answer.

Examples:
  eventnexus ask "Is there parking at the venue?" --snapshot snapshot.json
  eventnexus ask "Which events are in Berlin?" --db
  eventnexus ask "Who is attending GoCon?" --server http://localhost:8080 --stream`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			query := args[0]
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("query cannot be empty")
			}
			if !g.remote() && !g.hasSource() {
				return errNoSource
			}

			out := cmd.OutOrStdout()
			var onToken func(string) error
			if stream && !asJSON {
				onToken = func(token string) error {
					_, err := io.WriteString(out, token)
					return err
				}
			}

			ans, err := ask(ctx, g, query, onToken)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSONTo(out, ans)
			}
			if onToken == nil {
				fmt.Fprint(out, ans.Answer)
			}
			fmt.Fprintln(out)
			printSources(out, ans)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "print the answer as it is generated")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// ask answers over the server or a local app. A non-nil onToken streams.
func ask(ctx context.Context, g *globals, query string, onToken func(string) error) (models.ChatAnswer, error) {
	if g.remote() {
		c := g.client()
		var ans *models.ChatAnswer
		var err error
		if onToken != nil {
			ans, err = c.AskStream(ctx, query, nil, onToken)
		} else {
			ans, err = c.Ask(ctx, query, nil)
		}
		if err != nil {
			return models.ChatAnswer{}, err
		}
		return *ans, nil
	}

	a, err := g.localApp(ctx)
	if err != nil {
		return models.ChatAnswer{}, err
	}
	defer a.Close(ctx)
	if onToken != nil {
		return a.Chat.ChatStream(ctx, query, nil, onToken)
	}
	return a.Chat.Chat(ctx, query, nil)
}

func printSources(w io.Writer, ans models.ChatAnswer) {
	theme := defaultTheme
	if len(ans.Sources) == 0 {
		fmt.Fprintln(w, theme.hintStyle().Render("No sources."))
		return
	}
	fmt.Fprintln(w, theme.hintStyle().Render(fmt.Sprintf("Sources: %s (confidence %.2f)", strings.Join(ans.Sources, ", "), ans.Confidence)))
}
