package domain

import "time"

// UserSummary is the slim author/viewer identity embedded in posts, comments,
// and the session record. The full profile lives in Profile.
type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
}

// Profile is a user's account record as returned by the profile endpoints.
// Following and BlockedUsers are the raw relation sets; membership queries
// (has followed / has blocked) are derived on read, never stored.
type Profile struct {
	ID              string        `json:"_id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	Image           string        `json:"image,omitempty"`
	CoverImage      string        `json:"coverImage,omitempty"`
	Bio             string        `json:"bio,omitempty"`
	Verified        bool          `json:"isVerified"`
	Following       []UserSummary `json:"following"`
	Followers       []UserSummary `json:"followers"`
	BlockedUsers    []UserSummary `json:"blockedUsers"`
	Posts           []Post        `json:"posts,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	LastLogin       time.Time     `json:"lastLogin,omitempty"`
	ProfileViewers  []UserSummary `json:"profileViewers,omitempty"`
	AccountLevel    string        `json:"accountLevel,omitempty"`
	NotificationsOn bool          `json:"notificationsEnabled,omitempty"`
}

// Follows reports whether the profile follows the given user id.
func (p Profile) Follows(userID string) bool {
	return containsUser(p.Following, userID)
}

// HasBlocked reports whether the profile has blocked the given user id.
func (p Profile) HasBlocked(userID string) bool {
	return containsUser(p.BlockedUsers, userID)
}

func containsUser(users []UserSummary, id string) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
