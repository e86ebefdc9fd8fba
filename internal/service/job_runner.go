package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-api/internal/broker"
	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
	"github.com/d60-Lab/social-api/pkg/logger"
)

// JobSource 到期任务的来源
type JobSource interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*broker.Job, error)
}

// JobRunner 轮询 broker，执行到期的延迟发帖任务。失败只记录并上报，不重试。
type JobRunner struct {
	source       JobSource
	users        repository.UserRepository
	posts        repository.PostRepository
	workers      int
	claimLimit   int
	pollInterval time.Duration
	metricsCh    chan time.Duration // eta -> 执行完成的延迟
	now          func() time.Time

	processed atomic.Int64
	failed    atomic.Int64
}

func NewJobRunner(source JobSource, users repository.UserRepository, posts repository.PostRepository, workers, claimLimit int, pollInterval time.Duration) *JobRunner {
	if workers <= 0 {
		workers = 2
	}
	if claimLimit <= 0 {
		claimLimit = 32
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &JobRunner{
		source:       source,
		users:        users,
		posts:        posts,
		workers:      workers,
		claimLimit:   claimLimit,
		pollInterval: pollInterval,
		metricsCh:    make(chan time.Duration, 65536),
		now:          time.Now,
	}
}

func (r *JobRunner) Metrics() <-chan time.Duration { return r.metricsCh }

// Stats 已执行/失败的任务数
func (r *JobRunner) Stats() (processed, failed int64) {
	return r.processed.Load(), r.failed.Load()
}

// Start 启动若干 worker 轮询；返回停止函数，等待进行中的批次结束
func (r *JobRunner) Start() func(context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.loop(stop)
		}()
	}
	return func(ctx context.Context) error {
		close(stop)
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *JobRunner) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := r.ProcessOnce(context.Background()); err != nil {
				logger.Warn("claim scheduled posts failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce 领取一批到期任务并执行，返回成功创建的帖子数
func (r *JobRunner) ProcessOnce(ctx context.Context) (int, error) {
	jobs, err := r.source.ClaimDue(ctx, r.now().UTC(), r.claimLimit)
	created := 0
	for _, job := range jobs {
		ok, execErr := r.execute(ctx, job)
		if execErr != nil {
			r.failed.Add(1)
			logger.Error("scheduled post failed",
				zap.String("job", job.ID), zap.String("owner", job.OwnerID), zap.Error(execErr))
			r.report(job, execErr)
			continue
		}
		r.processed.Add(1)
		if ok {
			created++
		}
	}
	return created, err
}

// execute created_time 取执行时刻而不是 eta。帖子 ID 沿用任务 ID，
// 该帖子已由降级路径写入时不再重复创建，返回 false。
func (r *JobRunner) execute(ctx context.Context, job *broker.Job) (bool, error) {
	if _, err := r.users.GetByID(ctx, job.OwnerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, fmt.Errorf("owner %s: %w", job.OwnerID, ErrUserNotFound)
		}
		return false, err
	}
	now := r.now().UTC()
	post := &model.Post{
		ID:        orNewID(job.ID),
		OwnerID:   job.OwnerID,
		Title:     job.Title,
		Content:   job.Content,
		CreatedAt: now,
	}
	created, err := r.posts.CreateIfAbsent(ctx, post)
	if err != nil {
		return false, fmt.Errorf("create post: %w", err)
	}
	if !created {
		logger.Info("scheduled post already exists", zap.String("job", job.ID))
		return false, nil
	}
	logger.Info("scheduled post created", zap.String("job", job.ID), zap.String("post", post.ID))
	if !job.ETA.IsZero() {
		select {
		case r.metricsCh <- now.Sub(job.ETA):
		default:
		}
	}
	return true, nil
}

func (r *JobRunner) report(job *broker.Job, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "job_runner")
		scope.SetExtra("job_id", job.ID)
		scope.SetExtra("owner_id", job.OwnerID)
		scope.SetExtra("eta", job.ETA)
		sentry.CaptureException(err)
	})
}
