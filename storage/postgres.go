package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"todo-board/domain"
)

// Postgres is a PostgreSQL-backed task source scoped to one board.
type Postgres struct {
	pool  *pgxpool.Pool
	board string
}

// NewPostgres creates a Postgres source.
func NewPostgres(pool *pgxpool.Pool, board string) *Postgres {
	return &Postgres{pool: pool, board: board}
}

// EnsureTable creates the tasks table if it doesn't exist.
func (p *Postgres) EnsureTable(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id          BIGSERIAL PRIMARY KEY,
			board       TEXT NOT NULL,
			title       VARCHAR(50) NOT NULL,
			description VARCHAR(100) NOT NULL DEFAULT '',
			due_date    TIMESTAMPTZ NOT NULL,
			priority    TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board, id)`)
	return err
}

// List returns the board's tasks in creation order.
func (p *Postgres) List(ctx context.Context) ([]domain.Task, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, title, description, due_date, priority, created_at, updated_at
		FROM tasks WHERE board = $1 ORDER BY id`, p.board)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Create inserts a task and returns it with the id and timestamps set by the database.
func (p *Postgres) Create(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	t := domain.Task{
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
		Priority:    draft.Priority,
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO tasks (board, title, description, due_date, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.board, t.Title, t.Description, t.DueDate, t.Priority).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// Delete removes a task.
func (p *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM tasks WHERE board = $1 AND id = $2`, p.board, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
