package domain

import "time"

// Category labels posts. Categories are server-managed; the client only reads
// them.
type Category struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Author    string    `json:"author,omitempty"`
	Shares    int       `json:"shares,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
