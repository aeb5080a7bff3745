package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"todo-board/domain"
)

// ErrNotFound is returned when a task id is unknown to the source.
var ErrNotFound = errors.New("task not found")

// Source is a task backend. Writes are visible to the next List call.
type Source interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, draft domain.Draft) (domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

var lastID int64

// nextID issues strictly increasing ids derived from the wall clock in
// milliseconds, which keeps them exact when decoded as JavaScript numbers.
func nextID() int64 {
	for {
		now := time.Now().UnixMilli()
		last := atomic.LoadInt64(&lastID)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastID, last, now) {
			return now
		}
	}
}
