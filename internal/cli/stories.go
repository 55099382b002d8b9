package cli

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-story-client/client"
	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/render"
	"github.com/jrsteele09/go-story-client/stories"
	"github.com/spf13/cobra"
)

func newStoriesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "stories [all|own|favorites]",
		Short:     "List stories",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(render.ListAll), string(render.ListOwn), string(render.ListFavorites)},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			list, err := render.ParseList(name)
			if err != nil {
				return err
			}
			return app.run(cmd, func(_ context.Context, _ *client.Client, snap client.Snapshot, p *render.Printer) error {
				if list != render.ListAll && !snap.Authenticated() {
					return apperrors.ErrNotAuthenticated
				}
				p.Stories(list, snap)
				return nil
			})
		},
	}
}

func newSubmitCmd(app *App) *cobra.Command {
	var fields stories.Fields

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c *client.Client, _ client.Snapshot, p *render.Printer) error {
				story, err := c.SubmitStory(ctx, fields)
				if err != nil {
					return err
				}
				p.Story(story)
				return nil
			})
		},
	}

	addStoryFlags(cmd, &fields)
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

// newEditCmd pre-fills the edit from the user's own copy of the story; flags that are not given keep
// their current value.
func newEditCmd(app *App) *cobra.Command {
	var fields stories.Fields

	cmd := &cobra.Command{
		Use:   "edit <story-id>",
		Short: "Edit one of your stories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyID := args[0]
			return app.run(cmd, func(ctx context.Context, c *client.Client, snap client.Snapshot, p *render.Printer) error {
				if !snap.Authenticated() {
					return apperrors.ErrNotAuthenticated
				}
				current, ok := c.OwnStory(storyID)
				if !ok {
					return fmt.Errorf("story %s: %w", storyID, apperrors.ErrNotFound)
				}
				edit := stories.Fields{Author: current.Author, Title: current.Title, URL: current.URL}
				flags := cmd.Flags()
				if flags.Changed("author") {
					edit.Author = fields.Author
				}
				if flags.Changed("title") {
					edit.Title = fields.Title
				}
				if flags.Changed("url") {
					edit.URL = fields.URL
				}

				story, err := c.EditStory(ctx, storyID, edit)
				if err != nil {
					return err
				}
				p.Story(story)
				return nil
			})
		},
	}

	addStoryFlags(cmd, &fields)
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <story-id>",
		Short: "Delete one of your stories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c *client.Client, _ client.Snapshot, p *render.Printer) error {
				if err := c.DeleteStory(ctx, args[0]); err != nil {
					return err
				}
				p.Message("Story %s deleted.", args[0])
				return nil
			})
		},
	}
}

func newFavoriteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "favorite <story-id>",
		Aliases: []string{"fav"},
		Short:   "Toggle the favorite star of a story",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c *client.Client, _ client.Snapshot, p *render.Printer) error {
				star, err := c.ToggleFavorite(ctx, args[0])
				p.Star(args[0], star)
				return err
			})
		},
	}
}

func newRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the session and the stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c *client.Client, _ client.Snapshot, p *render.Printer) error {
				snap, err := c.Refresh(ctx)
				if err != nil {
					return err
				}
				p.Stories(render.ListAll, snap)
				return nil
			})
		},
	}
}

func addStoryFlags(cmd *cobra.Command, fields *stories.Fields) {
	cmd.Flags().StringVar(&fields.Author, "author", "", "Author name")
	cmd.Flags().StringVar(&fields.Title, "title", "", "Story title")
	cmd.Flags().StringVar(&fields.URL, "url", "", "Link to the story")
}
