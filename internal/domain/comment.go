package domain

import "time"

// Comment is a message attached to a post.
type Comment struct {
	ID        string      `json:"_id"`
	Message   string      `json:"message"`
	Author    UserSummary `json:"author"`
	PostID    string      `json:"postId"`
	CreatedAt time.Time   `json:"createdAt"`
}
