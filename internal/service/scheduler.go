package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-api/internal/broker"
	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
	"github.com/d60-Lab/social-api/pkg/logger"
)

// CreatePostInput 发帖请求。CreatedTime 为空表示"现在"。
// PostID 为空时各路径自行生成；非空时任务 ID 与帖子 ID 取同一个值。
type CreatePostInput struct {
	PostID      string     `json:"-"`
	Title       string     `json:"title" validate:"required,max=63"`
	Content     string     `json:"content" validate:"required"`
	OwnerID     string     `json:"owner" validate:"required"`
	CreatedTime *time.Time `json:"created_time"`
}

// ScheduleResult 二选一：同步路径返回 Post，队列路径返回 Job
type ScheduleResult struct {
	Post *model.Post
	Job  *broker.Job
}

func (r *ScheduleResult) Queued() bool { return r.Job != nil }

// Scheduler 发帖调度
type Scheduler interface {
	Schedule(ctx context.Context, in CreatePostInput) (*ScheduleResult, error)
}

// ImmediateScheduler 同步写库，CreatedTime 给了就用它作为 created_time
type ImmediateScheduler struct {
	posts repository.PostRepository
	users repository.UserRepository
	now   func() time.Time
}

func NewImmediateScheduler(posts repository.PostRepository, users repository.UserRepository) *ImmediateScheduler {
	return &ImmediateScheduler{posts: posts, users: users, now: time.Now}
}

func (s *ImmediateScheduler) Schedule(ctx context.Context, in CreatePostInput) (*ScheduleResult, error) {
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.OwnerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load owner: %w", err)
	}

	createdAt := s.now().UTC()
	if in.CreatedTime != nil {
		createdAt = in.CreatedTime.UTC()
	}
	post := &model.Post{
		ID:        orNewID(in.PostID),
		OwnerID:   in.OwnerID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: createdAt,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &ScheduleResult{Post: post}, nil
}

// Enqueuer 队列写入端
type Enqueuer interface {
	Enqueue(ctx context.Context, job *broker.Job) error
}

// QueueScheduler 投递延迟任务，不等待执行
type QueueScheduler struct {
	queue Enqueuer
	now   func() time.Time
}

func NewQueueScheduler(q Enqueuer) *QueueScheduler {
	return &QueueScheduler{queue: q, now: time.Now}
}

func (s *QueueScheduler) Schedule(ctx context.Context, in CreatePostInput) (*ScheduleResult, error) {
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	requested := now
	if in.CreatedTime != nil {
		requested = in.CreatedTime.UTC()
	}
	// delay <= 0 立即执行
	eta := now
	if delay := requested.Sub(now); delay > 0 {
		eta = now.Add(delay)
	}

	job := &broker.Job{
		ID:         orNewID(in.PostID),
		Title:      in.Title,
		Content:    in.Content,
		OwnerID:    in.OwnerID,
		ETA:        eta,
		EnqueuedAt: now,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return &ScheduleResult{Job: job}, nil
}

// Health broker 健康标志
type Health interface {
	Healthy() bool
	MarkDown(err error)
}

// SwitchingScheduler 按缓存的 broker 健康标志选择路径。
// 投递失败也降级为同步创建，调用方永远看不到 broker 错误。
// 投递前先分配帖子 ID：ZADD 实际成功但回包出错时，降级写入的帖子和稍后执行的任务
// 落到同一个主键上，只会有一条。
type SwitchingScheduler struct {
	health    Health
	live      Scheduler
	immediate Scheduler
}

func NewSwitchingScheduler(h Health, live, immediate Scheduler) *SwitchingScheduler {
	return &SwitchingScheduler{health: h, live: live, immediate: immediate}
}

func (s *SwitchingScheduler) Schedule(ctx context.Context, in CreatePostInput) (*ScheduleResult, error) {
	if s.live == nil || s.health == nil || !s.health.Healthy() {
		return s.immediate.Schedule(ctx, in)
	}
	if in.PostID == "" {
		in.PostID = uuid.New().String()
	}
	res, err := s.live.Schedule(ctx, in)
	if err == nil {
		return res, nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return nil, err
	}
	logger.Warn("enqueue failed, creating post synchronously",
		zap.String("owner", in.OwnerID), zap.Error(err))
	s.health.MarkDown(err)
	return s.immediate.Schedule(ctx, in)
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
