package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devemco/folio"
	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/storage"
)

func newPostsCmd() *cobra.Command {
	var profile, sortMode, category string
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts with reading time",
		Long: `List the seed posts, merged with the custom posts of --profile when given.
Engagement counts include the profile's own likes, shares and comments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			cfg := folio.ConfigFromEnv()
			if profile == "" {
				cfg.Storage = storage.Config{Driver: storage.DriverMemory}
				profile = "cli"
			}
			s, closeFn, err := openProfile(cmd.Context(), cfg, profile)
			if err != nil {
				return p.Error("cannot open storage", err.Error())
			}
			defer closeFn()

			list := blog.Sort(blog.FilterByCategory(s.Posts.All(), category), blog.ParseSortMode(sortMode))
			if len(list) == 0 {
				p.Warning("no posts in category %q\n", category)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PUBLISHED\tREAD\tLIKES\tCOMMENTS\tCATEGORY\tSLUG\tTITLE")
			for _, post := range list {
				counts, err := s.Engagement.Counts(cmd.Context(), post)
				if err != nil {
					return p.Error("cannot read engagement", err.Error())
				}
				title := post.Title
				if post.Custom {
					title += " (custom)"
				}
				fmt.Fprintf(tw, "%s\t%d min\t%d\t%d\t%s\t%s\t%s\n",
					post.PublishedAt.Format("2006-01-02"), blog.ReadingMinutes(post),
					counts.Likes, counts.Comments, post.Category.Name, post.Slug, title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "profile id whose custom posts and engagement to include")
	cmd.Flags().StringVar(&sortMode, "sort", string(blog.SortNewest), "newest, oldest or category")
	cmd.Flags().StringVar(&category, "category", blog.AllCategory, "category id, or all")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <draft.json>",
		Short: "Normalize a custom post draft and report the first invalid field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			data, err := readInput(cmd, args[0])
			if err != nil {
				return p.Error("cannot read draft", err.Error())
			}
			d, err := blog.ParseDraft(data)
			if err != nil {
				return p.Error("draft is not valid JSON", err.Error())
			}
			post, err := blog.Normalize(d, blog.NormalizeOptions{})
			if err != nil {
				return p.Error("draft is invalid", err.Error(),
					"fix the named field and run validate again")
			}
			p.Success("%s is valid\n", post.Slug)
			p.Info("  title:     %s\n", post.Title)
			p.Info("  category:  %s (%s)\n", post.Category.Name, post.Category.ID)
			p.Info("  published: %s\n", post.PublishedAt.Format("2006-01-02"))
			p.Info("  blocks:    %d\n", len(post.Content))
			p.Info("  reading:   %d min\n", blog.ReadingMinutes(post))
			return nil
		},
	}
}

// readInput reads the named file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
