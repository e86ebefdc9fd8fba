package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
)

// CommentService 评论只追加
type CommentService interface {
	Add(ctx context.Context, userID, postID, content string) (*model.Commentary, error)
	List(ctx context.Context) ([]*model.Commentary, error)
}

type commentService struct {
	commentary repository.CommentaryRepository
	posts      repository.PostRepository
}

func NewCommentService(commentary repository.CommentaryRepository, posts repository.PostRepository) CommentService {
	return &commentService{commentary: commentary, posts: posts}
}

func (s *commentService) Add(ctx context.Context, userID, postID, content string) (*model.Commentary, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fieldError("content", "this field is required")
	}
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post: %w", err)
	}
	if !ok {
		return nil, ErrPostNotFound
	}
	c := &model.Commentary{PostID: postID, UserID: userID, Content: content}
	if err := s.commentary.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create commentary: %w", err)
	}
	return c, nil
}

func (s *commentService) List(ctx context.Context) ([]*model.Commentary, error) {
	return s.commentary.ListAll(ctx)
}
