package api

import (
	"context"
	"time"

	"todo-board/domain"
)

const postTaskMaxSize = 16 * 1024 // 16 KiB

// Repository abstracts the task source for handlers.
type Repository interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, draft domain.Draft) (domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

// Deduper prevents the same create request from being applied twice.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, key string) (bool, error)
	// Remove deletes a previously added key, used when the create fails.
	Remove(ctx context.Context, key string) error
}

// Clock returns the current time. Handlers take it explicitly so deadline
// labels can be tested against a fixed instant.
type Clock func() time.Time

// Page configures the rendered board.
type Page struct {
	Title     string
	SheetURL  string
	SheetSize domain.Size
	Columns   []domain.Column
}

// POST /api/tasks request body
type draftRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
