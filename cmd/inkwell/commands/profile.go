package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"inkwell/internal/api"
	"inkwell/internal/domain"
	"inkwell/internal/users"
	"inkwell/internal/view"
	dErrors "inkwell/pkg/domain-errors"
)

var (
	updateUsername string
	updateEmail    string
	updateBio      string
)

var profileCmd = &cobra.Command{
	Use:   "profile [user-id]",
	Short: "Show your profile, or another user's public one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfile,
}

var followCmd = &cobra.Command{
	Use:   "follow <user-id>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runFollow,
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <user-id>",
	Short: "Unfollow a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnfollow,
}

var blockCmd = &cobra.Command{
	Use:   "block <user-id>",
	Short: "Block a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlock,
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <user-id>",
	Short: "Unblock a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnblock,
}

var updateProfileCmd = &cobra.Command{
	Use:   "update-profile",
	Short: "Change profile fields",
	RunE:  runUpdateProfile,
}

var avatarCmd = &cobra.Command{
	Use:   "avatar <image-path>",
	Short: "Replace your profile picture",
	Args:  cobra.ExactArgs(1),
	RunE:  runAvatar,
}

var coverCmd = &cobra.Command{
	Use:   "cover <image-path>",
	Short: "Replace your cover image",
	Args:  cobra.ExactArgs(1),
	RunE:  runCover,
}

func init() {
	updateProfileCmd.Flags().StringVar(&updateUsername, "username", "", "new username")
	updateProfileCmd.Flags().StringVar(&updateEmail, "email", "", "new email")
	updateProfileCmd.Flags().StringVar(&updateBio, "bio", "", "new bio")

	rootCmd.AddCommand(profileCmd, followCmd, unfollowCmd, blockCmd, unblockCmd,
		updateProfileCmd, avatarCmd, coverCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 1 {
		target, err := a.Users.FetchPublicProfile(ctx, args[0])
		if err != nil {
			return err
		}
		printProfile(target)
		if viewer, ok := a.Users.Profile(); ok {
			if view.HasFollowed(viewer, target.ID) {
				fmt.Println("you follow this user")
			}
			if view.HasBlocked(viewer, target.ID) {
				fmt.Println(color.RedString("you have blocked this user"))
			}
		}
		return nil
	}

	p, err := a.Users.FetchProfile(ctx)
	if err != nil {
		return err
	}
	printProfile(p)
	return nil
}

func printProfile(p domain.Profile) {
	fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint(p.Username), color.YellowString(p.ID))
	if p.Email != "" {
		fmt.Println(p.Email)
	}
	if p.Bio != "" {
		fmt.Println(p.Bio)
	}
	if p.Verified {
		fmt.Println(color.GreenString("verified"))
	}
	fmt.Printf("%d following, %d followers, %d blocked\n",
		len(p.Following), len(p.Followers), len(p.BlockedUsers))
}

func runFollow(cmd *cobra.Command, args []string) error {
	return socialRun(cmd, args[0], "now following %s", (*users.Store).Follow)
}

func runUnfollow(cmd *cobra.Command, args []string) error {
	return socialRun(cmd, args[0], "unfollowed %s", (*users.Store).Unfollow)
}

func runBlock(cmd *cobra.Command, args []string) error {
	return socialRun(cmd, args[0], "blocked %s", (*users.Store).Block)
}

func runUnblock(cmd *cobra.Command, args []string) error {
	return socialRun(cmd, args[0], "unblocked %s", (*users.Store).Unblock)
}

// socialRun drives one of the social-graph operations, which differ only in
// the store method.
func socialRun(
	cmd *cobra.Command,
	userID, format string,
	op func(*users.Store, context.Context, string) (domain.Profile, error),
) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := op(a.Users, ctx, userID); err != nil {
		return err
	}
	successf(format, userID)
	return nil
}

// uploadRun drives one of the image uploads.
func uploadRun(
	cmd *cobra.Command,
	path, message string,
	op func(*users.Store, context.Context, api.File) (domain.Profile, error),
) error {
	image, err := loadImage(path)
	if err != nil {
		return err
	}
	if image == nil {
		return dErrors.New(dErrors.CodeValidation, "image path is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := op(a.Users, ctx, *image); err != nil {
		return err
	}
	successf(message)
	return nil
}

func runUpdateProfile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Users.UpdateProfile(ctx, api.UpdateProfileInput{
		Username: updateUsername,
		Email:    updateEmail,
		Bio:      updateBio,
	})
	if err != nil {
		return err
	}
	successf("profile updated")
	printProfile(p)
	return nil
}

func runAvatar(cmd *cobra.Command, args []string) error {
	return uploadRun(cmd, args[0], "profile picture updated", (*users.Store).UploadProfileImage)
}

func runCover(cmd *cobra.Command, args []string) error {
	return uploadRun(cmd, args[0], "cover image updated", (*users.Store).UploadCoverImage)
}
