// Package view computes presentation values derived from domain state. The
// functions are pure; they read cached entities and never touch the wire.
package view

import (
	"strings"

	"inkwell/internal/domain"
)

// wordsPerMinute is the assumed reading speed for the reading-time estimate.
const wordsPerMinute = 200

// IsAuthor reports whether the given user wrote the post.
func IsAuthor(post domain.Post, userID string) bool {
	return userID != "" && post.Author.ID == userID
}

// HasFollowed reports whether the viewer's profile follows the target user.
func HasFollowed(viewer domain.Profile, targetID string) bool {
	return viewer.Follows(targetID)
}

// HasBlocked reports whether the viewer's profile blocks the target user.
func HasBlocked(viewer domain.Profile, targetID string) bool {
	return viewer.HasBlocked(targetID)
}

// ReactionRatio returns the like share of a post's reactions as a whole
// percentage. A post with no reactions has a ratio of zero.
func ReactionRatio(post domain.Post) int {
	likes := len(post.Likes)
	total := likes + len(post.Dislikes)
	if total == 0 {
		return 0
	}
	return likes * 100 / total
}

// ReadingTimeMinutes estimates how long the post takes to read, rounded up.
// Empty content still reads as one minute.
func ReadingTimeMinutes(post domain.Post) int {
	words := len(strings.Fields(post.Content))
	if words == 0 {
		return 1
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// ViewCount returns how many distinct users viewed the post.
func ViewCount(post domain.Post) int {
	return len(post.PostViews)
}

// HasReacted reports whether the user already liked or disliked the post.
func HasReacted(post domain.Post, userID string) bool {
	return post.LikedBy(userID) || post.DislikedBy(userID)
}
