package appErrors

import "fmt"

// ErrPostNotFound is a sentinel error
type ErrPostNotFound struct {
	PostID int
}

func (e *ErrPostNotFound) Error() string {
	return fmt.Sprintf("post with ID %d not found", e.PostID)
}

// Helper constructor
func NewPostNotFound(id int) error {
	return &ErrPostNotFound{PostID: id}
}

// ErrInvalidEmail rejects a malformed address before any side effect.
type ErrInvalidEmail struct {
	Email string
}

func (e *ErrInvalidEmail) Error() string {
	return fmt.Sprintf("invalid email address %q", e.Email)
}

func NewInvalidEmail(email string) error {
	return &ErrInvalidEmail{Email: email}
}

// ErrNoPublishedPost means there is nothing eligible to send.
type ErrNoPublishedPost struct{}

func (e *ErrNoPublishedPost) Error() string {
	return "no published post available to send"
}

func NewNoPublishedPost() error {
	return &ErrNoPublishedPost{}
}
