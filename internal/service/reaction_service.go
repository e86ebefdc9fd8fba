package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
	"github.com/d60-Lab/social-api/pkg/logger"
)

// ReactionService 赞/踩互斥
type ReactionService interface {
	React(ctx context.Context, userID, postID string, kind model.ReactionKind) (repository.ReactOutcome, error)
	Unreact(ctx context.Context, userID, postID string) error
}

type reactionService struct {
	reactions repository.ReactionRepository
	posts     repository.PostRepository
}

func NewReactionService(reactions repository.ReactionRepository, posts repository.PostRepository) ReactionService {
	return &reactionService{reactions: reactions, posts: posts}
}

func (s *reactionService) React(ctx context.Context, userID, postID string, kind model.ReactionKind) (repository.ReactOutcome, error) {
	if !kind.Valid() {
		return 0, fieldError("kind", "must be one of: like dislike")
	}
	out, err := s.reactions.React(ctx, userID, postID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrPostNotFound
		}
		return 0, fmt.Errorf("react: %w", err)
	}
	logger.Debug("reaction applied",
		zap.String("user", userID), zap.String("post", postID),
		zap.String("kind", string(kind)), zap.Stringer("outcome", out))
	return out, nil
}

// Unreact 没有反应时什么也不做；帖子不存在仍返回 ErrPostNotFound
func (s *reactionService) Unreact(ctx context.Context, userID, postID string) error {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("check post: %w", err)
	}
	if !ok {
		return ErrPostNotFound
	}
	if _, err := s.reactions.Delete(ctx, userID, postID); err != nil {
		return fmt.Errorf("unreact: %w", err)
	}
	return nil
}
