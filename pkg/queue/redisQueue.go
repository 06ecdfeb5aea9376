package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 5 * time.Second
	defaultQueueTimeout = 5 * time.Second
)

// Task represents a unit of work in the queue
type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	CreatedAt  time.Time              `json:"created_at"`
	Attempts   int                    `json:"attempts"`
	MaxRetries int                    `json:"max_retries"`
}

// GetInt64 returns an int64 value from task data. JSON numbers arrive
// as float64.
func (t *Task) GetInt64(key string) int64 {
	if val, ok := t.Data[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetString returns a string value from task data
func (t *Task) GetString(key string) string {
	if val, ok := t.Data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// Queue интерфейс очереди
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler func(*Task) error) error
	Close() error
}

// RedisQueueConfig contains configuration for RedisQueue
type RedisQueueConfig struct {
	MainQueue    string
	DelayedQueue string
	Processing   string
	DLQ          string

	MaxRetries   int
	BaseDelay    time.Duration
	QueueTimeout time.Duration
}

// DefaultRedisQueueConfig returns default configuration
func DefaultRedisQueueConfig() *RedisQueueConfig {
	return &RedisQueueConfig{
		MainQueue:    "hotel_booking:tasks",
		DelayedQueue: "hotel_booking:tasks:delayed",
		Processing:   "hotel_booking:tasks:processing",
		DLQ:          "hotel_booking:dlq",
		MaxRetries:   defaultMaxRetries,
		BaseDelay:    defaultBaseDelay,
		QueueTimeout: defaultQueueTimeout,
	}
}

// RedisQueue implements Queue on Redis: a list for ready tasks, a sorted
// set keyed by execution time for delayed ones, and a sorted set DLQ for
// tasks that exhausted their retries.
type RedisQueue struct {
	client *redis.Client
	cfg    *RedisQueueConfig

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewRedisQueue creates a new RedisQueue on top of an existing Redis
// client
func NewRedisQueue(client *redis.Client, cfg *RedisQueueConfig) (*RedisQueue, error) {
	if cfg == nil {
		cfg = DefaultRedisQueueConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	log.Printf("RedisQueue initialized: main=%s, delayed=%s, dlq=%s",
		cfg.MainQueue, cfg.DelayedQueue, cfg.DLQ)

	return &RedisQueue{
		client:   client,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}, nil
}

// Publish sends a task to the queue. Tasks with a future ExecuteAt land
// in the delayed sorted set, the rest go straight to the main list.
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if strings.TrimSpace(task.Type) == "" {
		return fmt.Errorf("task type is required")
	}
	if task.ID == "" {
		task.ID = fmt.Sprintf("task_%d_%d", time.Now().UnixNano(), rand.Int63())
	}
	if task.Data == nil {
		task.Data = make(map[string]interface{})
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = r.cfg.MaxRetries
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %v", err)
	}

	if !task.ExecuteAt.IsZero() && task.ExecuteAt.After(time.Now()) {
		score := float64(task.ExecuteAt.UnixNano()) / 1e9
		if err := r.client.ZAdd(ctx, r.cfg.DelayedQueue, &redis.Z{
			Score:  score,
			Member: taskData,
		}).Err(); err != nil {
			return fmt.Errorf("failed to publish delayed task: %v", err)
		}
		log.Printf("Task %s scheduled for execution at %s", task.ID, task.ExecuteAt.Format(time.RFC3339))
		return nil
	}

	if err := r.client.LPush(ctx, r.cfg.MainQueue, taskData).Err(); err != nil {
		return fmt.Errorf("failed to publish task: %v", err)
	}
	log.Printf("Task %s published to main queue", task.ID)
	return nil
}

// Subscribe starts consuming tasks from the queue
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	log.Println("RedisQueue subscriber started")
	return nil
}

// processMainQueue consumes tasks from the main list
func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
			if err := r.processOne(ctx, handler); err != nil {
				log.Printf("Error processing task: %v", err)
				time.Sleep(time.Second)
			}
		}
	}
}

// processOne moves one task to the processing list, runs it with retries
// and removes it afterwards
func (r *RedisQueue) processOne(ctx context.Context, handler func(*Task) error) error {
	taskData, err := r.client.BRPopLPush(ctx, r.cfg.MainQueue, r.cfg.Processing, r.cfg.QueueTimeout).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to move task to processing: %v", err)
	}
	defer func() {
		if err := r.client.LRem(ctx, r.cfg.Processing, 1, taskData).Err(); err != nil {
			log.Printf("Failed to remove task from processing: %v", err)
		}
	}()

	var task Task
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		log.Printf("Failed to unmarshal task: %v", err)
		r.moveToDLQ(ctx, &Task{
			ID:   fmt.Sprintf("corrupted_%d", time.Now().UnixNano()),
			Type: "corrupted",
			Data: map[string]interface{}{"raw_data": taskData},
		}, fmt.Errorf("invalid task format: %v", err))
		return nil
	}

	if err := r.runWithRetry(ctx, &task, handler); err != nil {
		log.Printf("Task %s failed after %d attempts: %v", task.ID, task.Attempts, err)
		r.moveToDLQ(ctx, &task, err)
		return nil
	}

	log.Printf("Task %s completed successfully", task.ID)
	return nil
}

// runWithRetry executes a task with exponential backoff and jitter
func (r *RedisQueue) runWithRetry(ctx context.Context, task *Task, handler func(*Task) error) error {
	for {
		task.Attempts++

		err := handler(task)
		if err == nil {
			return nil
		}
		if task.Attempts >= task.MaxRetries {
			return err
		}

		delay := r.backoff(task.Attempts)
		log.Printf("Task %s failed (attempt %d/%d), retrying in %v: %v",
			task.ID, task.Attempts, task.MaxRetries, delay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoff calculates the retry delay: base * 2^(attempt-1) with ±25% jitter
func (r *RedisQueue) backoff(attempt int) time.Duration {
	delay := r.cfg.BaseDelay * time.Duration(1<<(attempt-1))
	maxDelay := r.cfg.BaseDelay * 16
	if delay > maxDelay {
		delay = maxDelay
	}

	jitter := time.Duration(rand.Int63n(int64(delay / 2)))
	if rand.Intn(2) == 0 {
		return delay + jitter
	}
	return delay - jitter
}

// processDelayedTasks periodically moves ready delayed tasks to the main list
func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			if err := r.moveReadyTasks(ctx); err != nil {
				log.Printf("Failed to process delayed tasks: %v", err)
			}
		}
	}
}

// moveReadyTasks moves delayed tasks whose time has come to the main list
func (r *RedisQueue) moveReadyTasks(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := fmt.Sprintf("%f", float64(time.Now().UnixNano())/1e9)

	tasks, err := r.client.ZRangeByScore(ctx, r.cfg.DelayedQueue, &redis.ZRangeBy{
		Min: "0",
		Max: now,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get delayed tasks: %v", err)
	}
	if len(tasks) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, taskData := range tasks {
		pipe.LPush(ctx, r.cfg.MainQueue, taskData)
	}
	pipe.ZRemRangeByScore(ctx, r.cfg.DelayedQueue, "0", now)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to move delayed tasks: %v", err)
	}

	log.Printf("Moved %d delayed tasks to main queue", len(tasks))
	return nil
}

// moveToDLQ stores an exhausted task in the dead letter queue with the
// failure time as score
func (r *RedisQueue) moveToDLQ(ctx context.Context, task *Task, cause error) {
	entry := map[string]interface{}{
		"task":      task,
		"error":     cause.Error(),
		"failed_at": time.Now().Format(time.RFC3339),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("Failed to marshal DLQ entry: %v", err)
		return
	}

	score := float64(time.Now().UnixNano()) / 1e9
	if err := r.client.ZAdd(ctx, r.cfg.DLQ, &redis.Z{Score: score, Member: data}).Err(); err != nil {
		log.Printf("Failed to send task to DLQ: %v", err)
	}
}

// Stats contains queue depths for monitoring
type Stats struct {
	MainQueue    int64     `json:"main_queue"`
	DelayedQueue int64     `json:"delayed_queue"`
	Processing   int64     `json:"processing"`
	DLQ          int64     `json:"dlq"`
	Timestamp    time.Time `json:"timestamp"`
}

// GetStats returns current queue statistics
func (r *RedisQueue) GetStats(ctx context.Context) (*Stats, error) {
	pipe := r.client.Pipeline()

	mainLen := pipe.LLen(ctx, r.cfg.MainQueue)
	delayedLen := pipe.ZCard(ctx, r.cfg.DelayedQueue)
	processingLen := pipe.LLen(ctx, r.cfg.Processing)
	dlqLen := pipe.ZCard(ctx, r.cfg.DLQ)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %v", err)
	}

	return &Stats{
		MainQueue:    mainLen.Val(),
		DelayedQueue: delayedLen.Val(),
		Processing:   processingLen.Val(),
		DLQ:          dlqLen.Val(),
		Timestamp:    time.Now(),
	}, nil
}

// HealthCheck performs a health check on the queue
func (r *RedisQueue) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %v", err)
	}
	return nil
}

// Close gracefully shuts down the queue
func (r *RedisQueue) Close() error {
	close(r.stopChan)
	r.wg.Wait()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %v", err)
	}

	log.Println("RedisQueue closed successfully")
	return nil
}
