package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rmenezes/jurisearch/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueDocumentIndex(payload DocumentIndexPayload) error {
	return c.enqueue(TypeDocumentIndex, payload, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute))
}

func (c *Client) EnqueueDocumentPurge(payload DocumentPurgePayload) error {
	return c.enqueue(TypeDocumentPurge, payload,
		asynq.MaxRetry(5), asynq.Timeout(5*time.Minute), asynq.Queue("critical"))
}

func (c *Client) EnqueueCasePurge(payload CasePurgePayload) error {
	return c.enqueue(TypeCasePurge, payload,
		asynq.MaxRetry(5), asynq.Timeout(10*time.Minute), asynq.Queue("critical"))
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
