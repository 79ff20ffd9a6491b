// internal/model/broadcast_job.go
package model

import "time"

// BroadcastJob is the persisted cursor of one broadcast sweep. At most one
// live job exists per post; a tick is identified by (post_id, next_offset).
type BroadcastJob struct {
	ID          int       `db:"id" json:"id"`
	PostID      int       `db:"post_id" json:"post_id"`
	NextOffset  int       `db:"next_offset" json:"next_offset"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
