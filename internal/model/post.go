// internal/model/post.go
package model

import "time"

const (
	PostDraft     = "draft"
	PostPublished = "published"
)

type Post struct {
	ID            int        `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Body          string     `db:"body" json:"body"`
	Excerpt       string     `db:"excerpt" json:"excerpt,omitempty"`
	Permalink     string     `db:"permalink" json:"permalink"`
	ImagePath     string     `db:"image_path" json:"image_path,omitempty"`
	ImageURL      string     `db:"image_url" json:"image_url,omitempty"`
	Status        string     `db:"status" json:"status"`
	EverPublished bool       `db:"ever_published" json:"ever_published"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
