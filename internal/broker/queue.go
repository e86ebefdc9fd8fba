// Package broker 基于 redis ZSET 的延迟任务队列：score 为 eta（毫秒），
// member 为 JSON 编码的任务。
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Job 延迟发帖任务。ID 每次入队都新生成，相同参数的两次调用互不影响
type Job struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OwnerID    string    `json:"owner_id"`
	ETA        time.Time `json:"eta"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue 任务队列
type Queue struct {
	client *redis.Client
	key    string
}

func NewQueue(client *redis.Client, key string) *Queue {
	if key == "" {
		key = "jobs:scheduled_posts"
	}
	return &Queue{client: client, key: key}
}

func (q *Queue) Key() string { return q.key }

// Ping 探测 broker 是否存活
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue 写入任务，eta 之前不会被 ClaimDue 取到
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(job.ETA.UnixMilli()),
		Member: payload,
	}).Err()
}

// ClaimDue 取出最多 limit 个 eta <= now 的任务。
// ZREM 返回 1 才算抢到，多个 worker 并发时同一任务只会被一个拿到。
func (q *Queue) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 32
	}
	members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(members))
	for _, m := range members {
		removed, err := q.client.ZRem(ctx, q.key, m).Result()
		if err != nil {
			return jobs, err
		}
		if removed == 0 {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(m), &job); err != nil {
			// 坏数据已经移出队列，不再重试
			return jobs, fmt.Errorf("decode job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

// Len 队列中尚未被领取的任务数
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.key).Result()
}
