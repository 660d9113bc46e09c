package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/devemco/folio"
	"github.com/devemco/folio/engagement"
)

func newExportCmd() *cobra.Command {
	var profile, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the engagement of a profile as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			s, closeFn, err := openProfile(cmd.Context(), folio.ConfigFromEnv(), profile)
			if err != nil {
				return p.Error("cannot open storage", err.Error())
			}
			defer closeFn()

			env, err := s.Engagement.Export(cmd.Context(), s.Posts.All())
			if err != nil {
				return p.Error("export failed", err.Error())
			}
			data, err := json.MarshalIndent(env, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return p.Error("cannot write export", err.Error())
			}
			p.Success("exported %d posts to %s\n", len(env.BySlug), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "profile id (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func newImportCmd() *cobra.Command {
	var profile, mode string
	cmd := &cobra.Command{
		Use:   "import <export.json>",
		Short: "Import engagement into a profile",
		Long: `Import an engagement export into a profile.

merge overlays the fields present in the file. replace clears all engagement
of the profile first. Custom posts are kept either way.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			m, err := engagement.ParseMode(mode)
			if err != nil {
				return p.Error("unknown import mode", err.Error(), "use --mode merge", "use --mode replace")
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return p.Error("cannot read import file", err.Error())
			}
			s, closeFn, err := openProfile(cmd.Context(), folio.ConfigFromEnv(), profile)
			if err != nil {
				return p.Error("cannot open storage", err.Error())
			}
			defer closeFn()

			res, err := s.Engagement.Import(cmd.Context(), s.Posts.All(), data, m)
			if err != nil {
				return p.Error("import failed", err.Error())
			}
			p.Success("imported (%s): %d applied, %d skipped\n", m, res.Applied, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "profile id (required)")
	cmd.Flags().StringVar(&mode, "mode", string(engagement.ModeMerge), "merge or replace")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}
