package storage

import (
	"context"
	"sync"
	"time"

	"todo-board/domain"
)

// Memory keeps tasks in process. It backs local runs and handler tests.
type Memory struct {
	mu     sync.Mutex
	tasks  []domain.Task
	nextID int64
	now    func() time.Time
}

// NewMemory creates a Memory source seeded with tasks.
func NewMemory(seed ...domain.Task) *Memory {
	m := &Memory{now: time.Now}
	for _, t := range seed {
		m.tasks = append(m.tasks, t)
		if t.ID > m.nextID {
			m.nextID = t.ID
		}
	}
	return m
}

func (m *Memory) List(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Task, len(m.tasks))
	copy(out, m.tasks)
	return out, nil
}

func (m *Memory) Create(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := m.now().UTC()
	t := domain.Task{
		ID:          m.nextID,
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
		Priority:    draft.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.tasks = append(m.tasks, t)
	return t, nil
}

func (m *Memory) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
