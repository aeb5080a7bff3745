package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"todo-board/domain"
)

// Table stores tasks in an Azure table, one partition per board.
type Table struct {
	client *aztables.Client
	board  string
	now    func() time.Time
}

// NewTable creates a Table source from the given connection string.
func NewTable(connStr, tableName, board string) (*Table, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Table{client: svc.NewClient(tableName), board: board, now: time.Now}, nil
}

type taskEntity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
	Title        string `json:"Title"`
	Description  string `json:"Description"`
	DueDate      string `json:"DueDate"`
	Priority     string `json:"Priority"`
	CreatedAt    string `json:"CreatedAt"`
	UpdatedAt    string `json:"UpdatedAt"`
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	id, err := strconv.ParseInt(ent.RowKey, 10, 64)
	if err != nil {
		return domain.Task{}, fmt.Errorf("row key %q: %w", ent.RowKey, err)
	}
	return domain.RawTask{
		ID:          id,
		Title:       ent.Title,
		Description: ent.Description,
		DueDate:     ent.DueDate,
		Priority:    ent.Priority,
		CreatedAt:   ent.CreatedAt,
		UpdatedAt:   ent.UpdatedAt,
	}.Parse()
}

func partitionFilter(board string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(board, "'", "''") + "'"
}

// List returns every task of the board ordered by id.
func (t *Table) List(ctx context.Context) ([]domain.Task, error) {
	filter := partitionFilter(t.board)
	pager := t.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			task, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// Create inserts a new task entity.
func (t *Table) Create(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	now := t.now().UTC().Truncate(time.Millisecond)
	task := domain.Task{
		ID:          nextID(),
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
		Priority:    draft.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ent := taskEntity{
		PartitionKey: t.board,
		RowKey:       strconv.FormatInt(task.ID, 10),
		Title:        task.Title,
		Description:  task.Description,
		DueDate:      task.DueDate.Format(time.RFC3339Nano),
		Priority:     task.Priority,
		CreatedAt:    now.Format(time.RFC3339Nano),
		UpdatedAt:    now.Format(time.RFC3339Nano),
	}
	payload, err := sonic.Marshal(ent)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := t.client.AddEntity(ctx, payload, nil); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Delete removes the task entity.
func (t *Table) Delete(ctx context.Context, id int64) error {
	_, err := t.client.DeleteEntity(ctx, t.board, strconv.FormatInt(id, 10), nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}
