package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"gopkg.in/yaml.v3"
)

// profilesFile is the input of `recommend --profiles`.
type profilesFile struct {
	User      models.Profile   `yaml:"user" json:"user"`
	Attendees []models.Profile `yaml:"attendees" json:"attendees"`
}

func newRecommendCmd(g *globals) *cobra.Command {
	var (
		profilesPath string
		userID       string
		limit        int
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend who an attendee should meet",
		Long: `Rank attendees by profile similarity and suggest a conversation starter
for each match.

Candidates come from a profiles file (a user and a list of attendees) or,
with --user, from every attendee in the snapshot.

Examples:
  eventnexus recommend --profiles people.yaml
  eventnexus recommend --user u1 --source fixtures.yaml -n 5
  eventnexus recommend --user u1 --server http://localhost:8080 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var subject models.Profile
			var candidates []models.Profile
			switch {
			case profilesPath != "":
				var pf profilesFile
				if err := readYAML(profilesPath, &pf); err != nil {
					return err
				}
				subject, candidates = pf.User, pf.Attendees
			case userID != "":
				snap, err := loadSnapshot(ctx, g)
				if err != nil {
					return err
				}
				candidates = snap.Profiles()
				subject = findProfile(candidates, userID)
			default:
				return fmt.Errorf("pass --profiles or --user")
			}

			recs, err := recommend(ctx, g, subject, candidates, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSONTo(out, recs)
			}
			printRecommendations(out, subject, recs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&profilesPath, "profiles", "p", "", "file with a user and candidate attendees (YAML or JSON)")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "recommend for this attendee id from the snapshot")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max recommendations (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func recommend(ctx context.Context, g *globals, subject models.Profile, candidates []models.Profile, limit int) ([]models.Recommendation, error) {
	if g.remote() {
		return g.client().Recommend(ctx, subject, candidates, limit)
	}
	a, err := g.localApp(ctx)
	if err != nil {
		return nil, err
	}
	defer a.Close(ctx)
	return a.Networking.Recommend(ctx, subject, candidates, limit)
}

// loadSnapshot returns the snapshot from the server or the local source.
func loadSnapshot(ctx context.Context, g *globals) (models.Snapshot, error) {
	if g.remote() {
		snap, err := g.client().Snapshot(ctx)
		if err != nil {
			return models.Snapshot{}, err
		}
		return *snap, nil
	}
	if !g.hasSource() {
		return models.Snapshot{}, errNoSource
	}
	a, err := g.localApp(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	defer a.Close(ctx)
	return a.Chat.Snapshot(ctx)
}

// findProfile returns the profile with id, or a bare profile carrying only
// the id when the snapshot has no such attendee.
func findProfile(pool []models.Profile, id string) models.Profile {
	for _, p := range pool {
		if p.ID == id {
			return p
		}
	}
	return models.Profile{ID: id}
}

func printRecommendations(w io.Writer, subject models.Profile, recs []models.Recommendation) {
	theme := defaultTheme
	fmt.Fprintln(w, theme.titleStyle().Render(fmt.Sprintf("Recommended connections for %s", subject.DisplayName())))
	if len(recs) == 0 {
		fmt.Fprintln(w, theme.hintStyle().Render("No other attendees to recommend."))
		return
	}
	for i, r := range recs {
		fmt.Fprintf(w, "\n%d. %s %s\n", i+1, r.Name, theme.scoreStyle().Render(fmt.Sprintf("(%.2f)", r.Score)))
		if r.Match.Role != "" || r.Match.Company != "" {
			fmt.Fprintf(w, "   %s\n", theme.hintStyle().Render(joinNonEmpty(r.Match.Role, r.Match.Company)))
		}
		fmt.Fprintf(w, "   %s\n", r.Reason)
		fmt.Fprintf(w, "   %s %s\n", theme.successStyle().Render("Say:"), r.Starter)
	}
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " at " + b
}

func readYAML(path string, v any) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(src, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
