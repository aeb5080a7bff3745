package domain

import (
	"fmt"
	"time"
)

// Task represents a single to-do item as handed out by a task source.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RawTask is the wire shape of a task where timestamps are still ISO-8601 strings.
type RawTask struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Collection is the envelope the tasks API wraps list responses in.
type Collection[T any] struct {
	Member     []T `json:"member"`
	TotalItems int `json:"totalItems"`
}

// NewCollection wraps items, never producing a nil member list.
func NewCollection[T any](items []T) Collection[T] {
	if items == nil {
		items = []T{}
	}
	return Collection[T]{Member: items, TotalItems: len(items)}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps (with or without a zone) and bare dates.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time value %q", s)
}

// Parse converts the wire record into a Task. An empty or malformed due date is
// rejected; missing audit timestamps are left zero.
func (r RawTask) Parse() (Task, error) {
	if r.DueDate == "" {
		return Task{}, fmt.Errorf("task %d: missing dueDate", r.ID)
	}
	due, err := ParseTime(r.DueDate)
	if err != nil {
		return Task{}, fmt.Errorf("task %d: dueDate: %w", r.ID, err)
	}
	t := Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     due,
		Priority:    r.Priority,
	}
	if r.CreatedAt != "" {
		if t.CreatedAt, err = ParseTime(r.CreatedAt); err != nil {
			return Task{}, fmt.Errorf("task %d: createdAt: %w", r.ID, err)
		}
	}
	if r.UpdatedAt != "" {
		if t.UpdatedAt, err = ParseTime(r.UpdatedAt); err != nil {
			return Task{}, fmt.Errorf("task %d: updatedAt: %w", r.ID, err)
		}
	}
	return t, nil
}

// Draft is the partial task submitted to create; the source assigns ID and audit times.
type Draft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Priority    string    `json:"priority"`
}

// TaskEvent is published after a successful write.
type TaskEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	TaskID   int64  `json:"taskId"`
	Priority string `json:"priority,omitempty"`
	Time     int64  `json:"time"`
}

const (
	EventTaskCreated = "task-created"
	EventTaskDeleted = "task-deleted"
)
