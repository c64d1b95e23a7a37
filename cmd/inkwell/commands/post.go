package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"inkwell/internal/api"
	"inkwell/internal/domain"
	"inkwell/internal/posts"
	"inkwell/internal/view"
	dErrors "inkwell/pkg/domain-errors"
)

var (
	postTitle    string
	postContent  string
	postCategory string
	postImage    string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Read and manage posts",
}

var postShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a post and record the view",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostShow,
}

var postCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a post",
	RunE:  runPostCreate,
}

var postEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostEdit,
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostDelete,
}

var postLikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Like a post",
	Args:  cobra.ExactArgs(1),
	RunE:  reactionRunner((*posts.Store).Like, "liked"),
}

var postDislikeCmd = &cobra.Command{
	Use:   "dislike <id>",
	Short: "Dislike a post",
	Args:  cobra.ExactArgs(1),
	RunE:  reactionRunner((*posts.Store).Dislike, "disliked"),
}

var postClapCmd = &cobra.Command{
	Use:   "clap <id>",
	Short: "Clap for a post",
	Args:  cobra.ExactArgs(1),
	RunE:  reactionRunner((*posts.Store).Clap, "clapped for"),
}

var commentCmd = &cobra.Command{
	Use:   "comment <post-id> <message>",
	Short: "Comment on a post",
	Args:  cobra.ExactArgs(2),
	RunE:  runComment,
}

func init() {
	postCreateCmd.Flags().StringVarP(&postTitle, "title", "t", "", "post title")
	postCreateCmd.Flags().StringVarP(&postContent, "content", "c", "", "post body")
	postCreateCmd.Flags().StringVar(&postCategory, "category", "", "category id")
	postCreateCmd.Flags().StringVarP(&postImage, "image", "i", "", "path to the cover image")
	postCreateCmd.MarkFlagRequired("title")
	postCreateCmd.MarkFlagRequired("image")

	postEditCmd.Flags().StringVarP(&postTitle, "title", "t", "", "new title")
	postEditCmd.Flags().StringVarP(&postContent, "content", "c", "", "new body")
	postEditCmd.Flags().StringVar(&postCategory, "category", "", "new category id")
	postEditCmd.Flags().StringVarP(&postImage, "image", "i", "", "path to a new cover image")

	postCmd.AddCommand(postShowCmd, postCreateCmd, postEditCmd, postDeleteCmd,
		postLikeCmd, postDislikeCmd, postClapCmd)
	rootCmd.AddCommand(postCmd, commentCmd)
}

func runPostShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Signed-in readers also record the view. Anonymous readers just fetch.
	p, err := a.Posts.FetchSingle(ctx, args[0])
	if err != nil {
		return err
	}
	if a.Sessions.Authenticated() {
		if p, err = a.Posts.RecordView(ctx, args[0]); err != nil {
			return err
		}
	}

	fmt.Println(color.New(color.Bold).Sprint(p.Title))
	if p.Category != nil {
		fmt.Println(color.CyanString("[%s]", p.Category.Name))
	}
	fmt.Printf("by %s, %dm read, %d%% liked, %d claps, %d views\n\n",
		p.Author.Username, view.ReadingTimeMinutes(p), view.ReactionRatio(p), p.Claps, view.ViewCount(p))
	fmt.Println(p.Content)
	for _, c := range p.Comments {
		fmt.Printf("\n%s: %s\n", color.YellowString(c.Author.Username), c.Message)
	}
	return nil
}

func loadImage(path string) (*api.File, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "read image file")
	}
	return &api.File{Name: filepath.Base(path), Data: data}, nil
}

func runPostCreate(cmd *cobra.Command, _ []string) error {
	image, err := loadImage(postImage)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Posts.Add(ctx, api.PostInput{
		Title:      postTitle,
		Content:    postContent,
		CategoryID: postCategory,
		Image:      image,
	})
	if err != nil {
		return err
	}
	successf("published %s", p.ID)
	return nil
}

func runPostEdit(cmd *cobra.Command, args []string) error {
	image, err := loadImage(postImage)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Posts.Update(ctx, args[0], api.PostInput{
		Title:      postTitle,
		Content:    postContent,
		CategoryID: postCategory,
		Image:      image,
	})
	if err != nil {
		return err
	}
	successf("updated %s", p.ID)
	return nil
}

func runPostDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Posts.Delete(ctx, args[0]); err != nil {
		return err
	}
	successf("deleted %s", args[0])
	return nil
}

// reactionRunner builds a RunE for the toggle-style reactions, which differ
// only in the store method they drive.
func reactionRunner(
	react func(*posts.Store, context.Context, string) (domain.Post, error),
	verb string,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := react(a.Posts, ctx, args[0])
		if err != nil {
			return err
		}
		successf("%s %s (%d likes, %d dislikes, %d claps)",
			verb, p.ID, len(p.Likes), len(p.Dislikes), p.Claps)
		return nil
	}
}

func runComment(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.Comments.Create(ctx, api.CommentInput{PostID: args[0], Message: args[1]})
	if err != nil {
		return err
	}
	successf("comment %s added", c.ID)
	return nil
}
