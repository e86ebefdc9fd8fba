package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-api/internal/model"
)

type CommentaryRepository interface {
	Create(ctx context.Context, c *model.Commentary) error
	ListByPost(ctx context.Context, postID string) ([]*model.Commentary, error)
	ListAll(ctx context.Context) ([]*model.Commentary, error)
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int64, error)
}

type commentaryRepository struct {
	db *gorm.DB
}

func NewCommentaryRepository(db *gorm.DB) CommentaryRepository {
	return &commentaryRepository{db: db}
}

func (r *commentaryRepository) Create(ctx context.Context, c *model.Commentary) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *commentaryRepository) ListByPost(ctx context.Context, postID string) ([]*model.Commentary, error) {
	var res []*model.Commentary
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&res).Error
	return res, err
}

func (r *commentaryRepository) ListAll(ctx context.Context) ([]*model.Commentary, error) {
	var res []*model.Commentary
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&res).Error
	return res, err
}

func (r *commentaryRepository) CountByPosts(ctx context.Context, postIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PostID string
		N      int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Commentary{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = row.N
	}
	return out, nil
}
