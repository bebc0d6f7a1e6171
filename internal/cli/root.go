// Package cli provides the command-line interface for EventNexus.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/eventnexus-go/internal/app"
	"github.com/raphaelgruber/eventnexus-go/internal/client"
	"github.com/raphaelgruber/eventnexus-go/internal/config"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
)

// Version is set at build time.
var Version = "0.1.0"

// errNoSource is returned by commands that need a snapshot when none of
// --snapshot, --source, --db or --server was given.
var errNoSource = errors.New("no snapshot source: pass --snapshot, --source, --db or --server")

// globals holds the persistent flags and the state built from them.
type globals struct {
	verbose      bool
	serverURL    string
	snapshotFile string
	sourceFile   string
	useDB        bool

	cfg     config.Config
	logger  *slog.Logger
	cleanup func() error
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "eventnexus",
		Short: "Networking recommendations and event knowledge for EventNexus",
		Long: `EventNexus recommends who attendees should meet and answers questions
about events, attendees and the platform from a snapshot of platform data.

Commands run locally against a snapshot file, a fixture source or the
database, or remotely against an EventNexus server with --server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if g.verbose {
				cfg.LogLevel = slog.LevelDebug
			} else if cfg.LogLevel < slog.LevelWarn {
				// Keep command output readable; the log file still gets warnings.
				cfg.LogLevel = slog.LevelWarn
			}
			g.cfg = cfg
			g.logger, g.cleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.cleanup != nil {
				if err := g.cleanup(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
				}
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&g.serverURL, "server", "", "use an EventNexus server at this URL instead of running locally")
	flags.StringVar(&g.snapshotFile, "snapshot", "", "prebuilt snapshot file (YAML or JSON)")
	flags.StringVar(&g.sourceFile, "source", "", "raw events/users/registrations file to build the snapshot from")
	flags.BoolVar(&g.useDB, "db", false, "build the snapshot from SurrealDB")

	rootCmd.AddCommand(
		newRecommendCmd(g),
		newAskCmd(g),
		newHealthCmd(g),
		newSnapshotCmd(g),
		newStatsCmd(g),
		newSeedCmd(g),
	)
	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// remote reports whether commands talk to a server.
func (g *globals) remote() bool {
	return g.serverURL != ""
}

func (g *globals) client() *client.Client {
	return client.New(g.serverURL)
}

// provider returns the local snapshot provider selected by the flags, or nil.
func (g *globals) provider() (snapshot.Provider, error) {
	switch {
	case g.snapshotFile != "":
		snap, err := snapshot.LoadSnapshot(g.snapshotFile)
		if err != nil {
			return nil, err
		}
		return snapshot.Fixed(snap), nil
	case g.sourceFile != "":
		src, err := snapshot.LoadSource(g.sourceFile)
		if err != nil {
			return nil, err
		}
		return snapshot.NewBuilder(src, g.logger), nil
	}
	return nil, nil
}

// localApp builds the engine in-process. The caller closes it.
func (g *globals) localApp(ctx context.Context) (*app.App, error) {
	provider, err := g.provider()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, g.cfg, app.Options{
		Provider:  provider,
		ConnectDB: provider == nil && g.useDB,
		Logger:    g.logger,
	})
}

// hasSource reports whether a local snapshot source was selected.
func (g *globals) hasSource() bool {
	return g.snapshotFile != "" || g.sourceFile != "" || g.useDB
}
