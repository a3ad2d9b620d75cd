package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"shopora-backend/internal/shared/utils"
	"shopora-backend/pkg/logger"
)

// Client wraps the asynq client used by services to enqueue background
// work after a transaction commits.
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddress string) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddress}),
	}
}

// Enqueue marshals the payload and pushes a task onto the given queue.
func (c *Client) Enqueue(taskType string, payload interface{}, queue string, opts ...asynq.Option) error {
	data, err := utils.MarshalTaskPayload(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, data)

	allOpts := append([]asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(3),
		asynq.Timeout(2 * time.Minute),
	}, opts...)

	info, err := c.client.Enqueue(task, allOpts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue task %s: %w", taskType, err)
	}

	logger.Info("Task enqueued", map[string]interface{}{
		"type":  taskType,
		"id":    info.ID,
		"queue": info.Queue,
	})
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
