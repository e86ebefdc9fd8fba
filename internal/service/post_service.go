package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/d60-Lab/social-api/internal/cache"
	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
)

// DateLayout created_time 过滤参数格式
const DateLayout = "2006-01-02"

// PostSummary 列表视图
type PostSummary struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	CreatedTime   time.Time `json:"created_time"`
	Comments      int64     `json:"comments"`
	LikesCount    int64     `json:"likes_count"`
	DislikesCount int64     `json:"dislikes_count"`
}

// PostDetail 详情视图，带评论和赞/踩用户
type PostDetail struct {
	PostSummary
	Commentaries []*model.Commentary `json:"commentaries"`
	Likes        []string            `json:"likes"`
	Dislikes     []string            `json:"dislikes"`
}

// ListPostsQuery 原始查询参数
type ListPostsQuery struct {
	Title       string
	CreatedTime string
}

type PostService interface {
	Create(ctx context.Context, in CreatePostInput) (*ScheduleResult, error)
	List(ctx context.Context, q ListPostsQuery) ([]PostSummary, error)
	Get(ctx context.Context, id string) (*PostDetail, error)
	MyPosts(ctx context.Context, userID string) ([]PostSummary, error)
	// FollowingPosts 当前用户关注的人发的帖子，按 created_time 倒序
	FollowingPosts(ctx context.Context, userID string) ([]PostSummary, error)
}

type postService struct {
	posts      repository.PostRepository
	reactions  repository.ReactionRepository
	commentary repository.CommentaryRepository
	follows    repository.FollowRepository
	following  *cache.FollowingCache
	scheduler  Scheduler
}

func NewPostService(
	posts repository.PostRepository,
	reactions repository.ReactionRepository,
	commentary repository.CommentaryRepository,
	follows repository.FollowRepository,
	following *cache.FollowingCache,
	scheduler Scheduler,
) PostService {
	return &postService{
		posts:      posts,
		reactions:  reactions,
		commentary: commentary,
		follows:    follows,
		following:  following,
		scheduler:  scheduler,
	}
}

func (s *postService) Create(ctx context.Context, in CreatePostInput) (*ScheduleResult, error) {
	in.Title = strings.TrimSpace(in.Title)
	return s.scheduler.Schedule(ctx, in)
}

// ParsePostFilter title 非空时忽略 created_time（不做格式校验）
func ParsePostFilter(q ListPostsQuery) (repository.PostFilter, error) {
	if q.Title != "" {
		return repository.PostFilter{Title: q.Title}, nil
	}
	if q.CreatedTime == "" {
		return repository.PostFilter{}, nil
	}
	d, err := time.ParseInLocation(DateLayout, q.CreatedTime, time.UTC)
	if err != nil {
		return repository.PostFilter{}, fieldError("created_time", "date has wrong format, use YYYY-MM-DD")
	}
	return repository.PostFilter{CreatedDate: &d}, nil
}

func (s *postService) List(ctx context.Context, q ListPostsQuery) ([]PostSummary, error) {
	filter, err := ParsePostFilter(q)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.summaries(ctx, posts)
}

func (s *postService) Get(ctx context.Context, id string) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	comments, err := s.commentary.ListByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list commentaries: %w", err)
	}
	reactions, err := s.reactions.ListByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}

	detail := &PostDetail{
		PostSummary:  toSummary(post),
		Commentaries: comments,
		Likes:        []string{},
		Dislikes:     []string{},
	}
	for _, rx := range reactions {
		switch rx.Kind {
		case model.ReactionLike:
			detail.Likes = append(detail.Likes, rx.UserID)
		case model.ReactionDislike:
			detail.Dislikes = append(detail.Dislikes, rx.UserID)
		}
	}
	detail.Comments = int64(len(comments))
	detail.LikesCount = int64(len(detail.Likes))
	detail.DislikesCount = int64(len(detail.Dislikes))
	return detail, nil
}

func (s *postService) MyPosts(ctx context.Context, userID string) ([]PostSummary, error) {
	posts, err := s.posts.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list own posts: %w", err)
	}
	return s.summaries(ctx, posts)
}

func (s *postService) FollowingPosts(ctx context.Context, userID string) ([]PostSummary, error) {
	var (
		ids []string
		err error
	)
	if s.following != nil {
		ids, err = s.following.FolloweeIDs(ctx, userID, s.follows.FolloweeIDs)
	} else {
		ids, err = s.follows.FolloweeIDs(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load following: %w", err)
	}

	owners := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != userID {
			owners = append(owners, id)
		}
	}
	posts, err := s.posts.ListByOwners(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("list following posts: %w", err)
	}
	return s.summaries(ctx, posts)
}

// summaries 批量补齐评论数与赞/踩数
func (s *postService) summaries(ctx context.Context, posts []*model.Post) ([]PostSummary, error) {
	out := make([]PostSummary, len(posts))
	if len(posts) == 0 {
		return out, nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	counts, err := s.reactions.CountsByPosts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}
	comments, err := s.commentary.CountByPosts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count commentaries: %w", err)
	}
	for i, p := range posts {
		out[i] = toSummary(p)
		out[i].Comments = comments[p.ID]
		out[i].LikesCount = counts[p.ID].Likes
		out[i].DislikesCount = counts[p.ID].Dislikes
	}
	return out, nil
}

func toSummary(p *model.Post) PostSummary {
	return PostSummary{
		ID:          p.ID,
		Owner:       p.OwnerID,
		Title:       p.Title,
		Content:     p.Content,
		CreatedTime: p.CreatedAt,
	}
}
