package repository

import (
	"database/sql"
	"time"

	"github.com/webrall/newsletter-backend/internal/model"
)

type BroadcastJobRepositoryInterface interface {
	Upsert(postID, nextOffset int, scheduledAt time.Time) (*model.BroadcastJob, error)
	Get(postID int) (*model.BroadcastJob, error)
	Delete(postID int) error
	ListDue(now time.Time) ([]model.BroadcastJob, error)
}

type BroadcastJobRepository struct {
	DB *sql.DB
}

// Upsert writes the sweep cursor for a post. The UNIQUE(post_id) constraint
// keeps at most one live job per post lineage; advancing a sweep replaces
// the previous offset in place.
func (r *BroadcastJobRepository) Upsert(postID, nextOffset int, scheduledAt time.Time) (*model.BroadcastJob, error) {
	query := `
        INSERT INTO broadcast_jobs (post_id, next_offset, scheduled_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (post_id)
        DO UPDATE SET next_offset=$2, scheduled_at=$3
        RETURNING id, created_at
    `
	job := &model.BroadcastJob{
		PostID:      postID,
		NextOffset:  nextOffset,
		ScheduledAt: scheduledAt,
	}
	if err := r.DB.QueryRow(query, postID, nextOffset, scheduledAt).Scan(&job.ID, &job.CreatedAt); err != nil {
		return nil, err
	}
	return job, nil
}

func (r *BroadcastJobRepository) Get(postID int) (*model.BroadcastJob, error) {
	query := `
        SELECT id, post_id, next_offset, scheduled_at, created_at
        FROM broadcast_jobs
        WHERE post_id=$1
    `
	var job model.BroadcastJob
	err := r.DB.QueryRow(query, postID).Scan(
		&job.ID, &job.PostID, &job.NextOffset, &job.ScheduledAt, &job.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Delete is the terminal transition of a sweep: an empty slice removes the
// cursor and nothing is rescheduled.
func (r *BroadcastJobRepository) Delete(postID int) error {
	_, err := r.DB.Exec(`DELETE FROM broadcast_jobs WHERE post_id=$1`, postID)
	return err
}

// ListDue returns jobs whose scheduled_at has passed, used by the worker to
// recover sweeps whose queue message was lost across a broker restart.
func (r *BroadcastJobRepository) ListDue(now time.Time) ([]model.BroadcastJob, error) {
	query := `
        SELECT id, post_id, next_offset, scheduled_at, created_at
        FROM broadcast_jobs
        WHERE scheduled_at <= $1
        ORDER BY scheduled_at ASC
    `
	rows, err := r.DB.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []model.BroadcastJob{}
	for rows.Next() {
		var job model.BroadcastJob
		if err := rows.Scan(&job.ID, &job.PostID, &job.NextOffset, &job.ScheduledAt, &job.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

var _ BroadcastJobRepositoryInterface = (*BroadcastJobRepository)(nil)
