package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/inboxpilot/mailextract/internal/config"
)

type Client struct {
	client     *asynq.Client
	maxRetries int
}

func NewClient(redisCfg config.RedisConfig, queueCfg config.QueueConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		}),
		maxRetries: queueCfg.MaxRetries,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueAttachmentExtract schedules one extraction job for an attachment.
// Fire-and-forget: callers log failures and never fail their own write path.
func (c *Client) EnqueueAttachmentExtract(payload AttachmentExtractPayload) error {
	return c.enqueue(TypeAttachmentExtract, payload,
		asynq.MaxRetry(c.maxRetries), asynq.Timeout(15*time.Minute))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
