package domain

import "time"

// Post is the canonical post entity. Likes, Dislikes, and PostViews are sets of
// user ids; the server is authoritative for all reaction counts, so reaction
// operations replace the whole entity rather than patching counters locally.
type Post struct {
	ID        string      `json:"_id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Image     string      `json:"image,omitempty"`
	Category  *Category   `json:"category,omitempty"`
	Author    UserSummary `json:"author"`
	Likes     []string    `json:"likes"`
	Dislikes  []string    `json:"dislikes"`
	Claps     int         `json:"claps"`
	Comments  []Comment   `json:"comments,omitempty"`
	PostViews []string    `json:"postViews"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt,omitempty"`
}

// LikedBy reports whether the given user id is in the like set.
func (p Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// DislikedBy reports whether the given user id is in the dislike set.
func (p Post) DislikedBy(userID string) bool {
	for _, id := range p.Dislikes {
		if id == userID {
			return true
		}
	}
	return false
}

// PostPage is a paginated listing of posts as returned by the private listing
// endpoint.
type PostPage struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"page"`
	Pages      int    `json:"pages"`
	Total      int    `json:"total"`
	SearchTerm string `json:"searchTerm,omitempty"`
}
