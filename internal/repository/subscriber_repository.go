package repository

import (
	"database/sql"
	"time"

	"github.com/webrall/newsletter-backend/internal/model"
)

type SubscriberRepositoryInterface interface {
	GetByEmail(email string) (*model.Subscriber, error)
	UpsertActive(email, token string) (*model.Subscriber, bool, error)
	MarkUnsubscribed(email, token string) (bool, error)
	ListActive(limit, offset int) ([]model.Subscriber, error)
	CountActive() (int, error)
	ListAll(offset, limit int) ([]model.Subscriber, int, error)
}

type SubscriberRepository struct {
	DB *sql.DB
}

// GetByEmail fetches a subscriber by address regardless of status.
func (r *SubscriberRepository) GetByEmail(email string) (*model.Subscriber, error) {
	query := `
        SELECT id, email, status, token, created_at, unsub_at
        FROM subscribers
        WHERE email = $1
    `
	var s model.Subscriber
	err := r.DB.QueryRow(query, email).Scan(
		&s.ID, &s.Email, &s.Status, &s.Token, &s.CreatedAt, &s.UnsubAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &s, nil
}

// UpsertActive creates an active row for a new address or reactivates an
// existing one. A reactivation takes the fresh token and a refreshed
// created_at, and clears unsub_at. The bool reports whether the row is new.
func (r *SubscriberRepository) UpsertActive(email, token string) (*model.Subscriber, bool, error) {
	existing, err := r.GetByEmail(email)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		query := `
            UPDATE subscribers
            SET status='active', token=$1, created_at=NOW(), unsub_at=NULL
            WHERE id=$2
            RETURNING created_at
        `
		if err := r.DB.QueryRow(query, token, existing.ID).Scan(&existing.CreatedAt); err != nil {
			return nil, false, err
		}
		existing.Status = model.SubscriberActive
		existing.Token = token
		existing.UnsubAt = nil
		return existing, false, nil
	}

	query := `
        INSERT INTO subscribers (email, status, token)
        VALUES ($1, 'active', $2)
        RETURNING id, created_at
    `
	s := &model.Subscriber{
		Email:  email,
		Status: model.SubscriberActive,
		Token:  token,
	}
	if err := r.DB.QueryRow(query, email, token).Scan(&s.ID, &s.CreatedAt); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// MarkUnsubscribed flips a row to unsub only when email, token and active
// status all match. Any mismatch is a silent no-op so the endpoint leaks
// nothing beyond "nothing happened".
func (r *SubscriberRepository) MarkUnsubscribed(email, token string) (bool, error) {
	query := `
        UPDATE subscribers
        SET status='unsub', unsub_at=$1
        WHERE email=$2 AND token=$3 AND status='active'
    `
	res, err := r.DB.Exec(query, time.Now(), email, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListActive returns one batch slice of active subscribers, ordered by id
// ascending so a sweep visits every row exactly once.
func (r *SubscriberRepository) ListActive(limit, offset int) ([]model.Subscriber, error) {
	query := `
        SELECT id, email, status, token, created_at, unsub_at
        FROM subscribers
        WHERE status='active'
        ORDER BY id ASC
        LIMIT $1 OFFSET $2
    `
	rows, err := r.DB.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Status, &s.Token, &s.CreatedAt, &s.UnsubAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SubscriberRepository) CountActive() (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM subscribers WHERE status='active'`).Scan(&count)
	return count, err
}

// ListAll returns a display page of subscribers (any status) plus the total.
func (r *SubscriberRepository) ListAll(offset, limit int) ([]model.Subscriber, int, error) {
	query := `
        SELECT id, email, status, token, created_at, unsub_at
        FROM subscribers
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2
    `
	rows, err := r.DB.Query(query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	subs := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Status, &s.Token, &s.CreatedAt, &s.UnsubAt); err != nil {
			return nil, 0, err
		}
		subs = append(subs, s)
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM subscribers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
