package storage

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"todo-board/domain"
)

// Notifier receives an event for every successful write.
type Notifier interface {
	Notify(ctx context.Context, ev domain.TaskEvent) error
}

// QueueNotifier publishes task events to an Azure storage queue.
type QueueNotifier struct {
	queue *azqueue.QueueClient
}

// NewQueueNotifier creates a notifier for the named queue.
func NewQueueNotifier(connStr, queueName string) (*QueueNotifier, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, err
	}
	return &QueueNotifier{queue: q}, nil
}

func (n *QueueNotifier) Notify(ctx context.Context, ev domain.TaskEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = n.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}

// Publishing wraps a Source and reports writes to a Notifier. Notification
// failures are logged; the write itself has already succeeded.
type Publishing struct {
	Source
	notifier Notifier
	now      func() time.Time
}

// NewPublishing returns base unchanged when notifier is nil.
func NewPublishing(base Source, notifier Notifier) Source {
	if notifier == nil {
		return base
	}
	return &Publishing{Source: base, notifier: notifier, now: time.Now}
}

func (p *Publishing) Create(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	t, err := p.Source.Create(ctx, draft)
	if err != nil {
		return domain.Task{}, err
	}
	p.publish(ctx, domain.EventTaskCreated, t.ID, t.Priority)
	return t, nil
}

func (p *Publishing) Delete(ctx context.Context, id int64) error {
	if err := p.Source.Delete(ctx, id); err != nil {
		return err
	}
	p.publish(ctx, domain.EventTaskDeleted, id, "")
	return nil
}

func (p *Publishing) publish(ctx context.Context, typ string, id int64, priority string) {
	ev := domain.TaskEvent{
		ID:       uuid.NewString(),
		Type:     typ,
		TaskID:   id,
		Priority: priority,
		Time:     p.now().UnixNano(),
	}
	if err := p.notifier.Notify(ctx, ev); err != nil {
		log.WithError(err).WithFields(log.Fields{"event": typ, "task": id}).Error("failed to publish task event")
	}
}
