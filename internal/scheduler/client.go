package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"opc_crm_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

func NewClient(cfg config.RedisConfig, maxRetry int) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return NewClientWithOpt(opt, cfg.GetAsynqQueueName(), maxRetry), nil
}

// NewClientWithOpt builds a client on an explicit connection, e.g. a miniredis address.
func NewClientWithOpt(opt asynq.RedisConnOpt, queue string, maxRetry int) *Client {
	if queue == "" {
		queue = "default"
	}
	if maxRetry < 0 {
		maxRetry = 0
	}
	return &Client{
		client:   asynq.NewClient(opt),
		queue:    queue,
		maxRetry: maxRetry,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueVisitDispatch schedules delivery of a completed visit. The task id is the
// correlation id, so a second enqueue while the first is still queued reports false.
func (c *Client) EnqueueVisitDispatch(ctx context.Context, appointmentID uuid.UUID, correlationID string) (bool, error) {
	if c == nil || c.client == nil {
		return false, fmt.Errorf("scheduler client not configured")
	}

	task, err := NewVisitDispatchTask(VisitDispatchPayload{AppointmentID: appointmentID.String()})
	if err != nil {
		return false, err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(correlationID),
		asynq.MaxRetry(c.maxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
