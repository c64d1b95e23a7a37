package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"inkwell/internal/api"
	"inkwell/internal/domain"
	"inkwell/internal/view"
)

var (
	feedMine   bool
	feedSearch string
	feedPage   int
	feedLimit  int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List posts",
	Long:  `List the public feed, or your own posts with --mine (requires login).`,
	RunE:  runFeed,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories",
	RunE:  runCategories,
}

func init() {
	feedCmd.Flags().BoolVar(&feedMine, "mine", false, "list your own posts")
	feedCmd.Flags().StringVar(&feedSearch, "search", "", "filter your posts by title")
	feedCmd.Flags().IntVar(&feedPage, "page", 1, "page of your posts")
	feedCmd.Flags().IntVar(&feedLimit, "limit", 10, "posts per page")

	rootCmd.AddCommand(feedCmd, categoriesCmd)
}

func runFeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if feedMine {
		page, err := a.Posts.FetchPrivate(ctx, api.ListQuery{
			Page:       feedPage,
			Limit:      feedLimit,
			SearchTerm: feedSearch,
		})
		if err != nil {
			return err
		}
		for _, p := range page.Posts {
			printPostLine(p)
		}
		fmt.Printf("page %d of %d, %d posts\n", page.Page, page.Pages, page.Total)
		return nil
	}

	posts, err := a.Posts.FetchPublic(ctx)
	if err != nil {
		return err
	}
	for _, p := range posts {
		printPostLine(p)
	}
	return nil
}

func runCategories(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.Categories.FetchAll(ctx)
	if err != nil {
		return err
	}
	for _, c := range list {
		fmt.Printf("%s  %s\n", color.CyanString(c.ID), c.Name)
	}
	return nil
}

func printPostLine(p domain.Post) {
	category := ""
	if p.Category != nil {
		category = color.CyanString(" [%s]", p.Category.Name)
	}
	fmt.Printf("%s  %s%s  by %s  %dm read, %d%% liked, %d views\n",
		color.YellowString(p.ID),
		color.New(color.Bold).Sprint(p.Title),
		category,
		p.Author.Username,
		view.ReadingTimeMinutes(p),
		view.ReactionRatio(p),
		view.ViewCount(p),
	)
}
