package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/webrall/newsletter-backend/internal/errors"
	"github.com/webrall/newsletter-backend/internal/model"
)

type PostRepositoryInterface interface {
	Create(p *model.Post) error
	GetByID(id int) (*model.Post, error)
	Publish(id int) (*model.Post, bool, error)
	LatestPublished() (*model.Post, error)
}

type PostRepository struct {
	DB *sql.DB
}

const postColumns = `id, title, body, excerpt, permalink, image_path, image_url, status, ever_published, published_at, created_at`

func scanPost(row *sql.Row) (*model.Post, error) {
	var p model.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Body, &p.Excerpt, &p.Permalink,
		&p.ImagePath, &p.ImageURL, &p.Status, &p.EverPublished,
		&p.PublishedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) Create(p *model.Post) error {
	p.CreatedAt = time.Now()
	if p.Status == "" {
		p.Status = model.PostDraft
	}
	query := `
        INSERT INTO posts (title, body, excerpt, permalink, image_path, image_url, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		p.Title, p.Body, p.Excerpt, p.Permalink,
		p.ImagePath, p.ImageURL, p.Status, p.CreatedAt,
	).Scan(&p.ID)
}

func (r *PostRepository) GetByID(id int) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id=$1`
	p, err := scanPost(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewPostNotFound(id)
		}
		return nil, err
	}
	return p, nil
}

// Publish marks the post published. The returned bool reports whether this
// is the first publication ever; an unpublish/republish cycle or a later
// edit returns false so the caller never starts a duplicate sweep.
func (r *PostRepository) Publish(id int) (*model.Post, bool, error) {
	query := `
        UPDATE posts
        SET status='published', published_at=COALESCE(published_at, NOW())
        WHERE id=$1
    `
	if _, err := r.DB.Exec(query, id); err != nil {
		return nil, false, err
	}

	// The flag is only ever flipped draft->true, so rows affected tells us
	// whether this publish was the first.
	guard := `UPDATE posts SET ever_published=TRUE WHERE id=$1 AND ever_published=FALSE`
	res, err := r.DB.Exec(guard, id)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	p, err := r.GetByID(id)
	if err != nil {
		return nil, false, err
	}
	return p, n > 0, nil
}

// LatestPublished returns the newest published post, or nil.
func (r *PostRepository) LatestPublished() (*model.Post, error) {
	query := `
        SELECT ` + postColumns + `
        FROM posts
        WHERE status='published'
        ORDER BY published_at DESC, id DESC
        LIMIT 1
    `
	p, err := scanPost(r.DB.QueryRow(query))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

var _ PostRepositoryInterface = (*PostRepository)(nil)
