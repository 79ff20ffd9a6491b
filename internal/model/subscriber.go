// internal/model/subscriber.go
package model

import "time"

const (
	SubscriberActive = "active"
	SubscriberUnsub  = "unsub"
)

type Subscriber struct {
	ID        int        `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	Status    string     `db:"status" json:"status"` // active, unsub
	Token     string     `db:"token" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UnsubAt   *time.Time `db:"unsub_at" json:"unsub_at,omitempty"`
}
