// Package commands implements the folio command line.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devemco/folio"
	"github.com/devemco/folio/internal/printer"
	"github.com/devemco/folio/storage"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// NewRootCmd builds the folio command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "folio",
		Short: "folio - portfolio blog with per-profile engagement",
		Long: `folio serves a portfolio blog. Likes, bookmarks, shares, comments and
custom posts are kept per browser profile in SQLite, Redis or memory.

Configuration comes from the environment and an optional .env file.`,
		Version: info.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(
		newServeCmd(),
		newPostsCmd(),
		newValidateCmd(),
		newExportCmd(),
		newImportCmd(),
		newVersionCmd(info),
	)
	return root
}

func newPrinter(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the folio version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			newPrinter(cmd).Info("folio %s\n", info)
			return nil
		},
	}
}

// openProfile loads the session of profile from the configured storage.
// The returned close func releases the backend.
func openProfile(ctx context.Context, cfg folio.SiteConfig, profile string) (*folio.Session, func() error, error) {
	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	cache := folio.NewSessionCache(backend, folio.SessionConfig{
		TTL:              cfg.SessionTTL,
		Namespace:        cfg.Namespace,
		FeaturedInterval: cfg.FeaturedInterval,
	})
	s, err := cache.Get(ctx, profile)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return s, backend.Close, nil
}
