package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-api/internal/model"
)

// ReactOutcome 一次 React 的结果
type ReactOutcome int

const (
	ReactCreated ReactOutcome = iota + 1
	ReactSwitched
	ReactUnchanged
)

func (o ReactOutcome) String() string {
	switch o {
	case ReactCreated:
		return "created"
	case ReactSwitched:
		return "switched"
	case ReactUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// ReactionCounts 单个帖子的赞/踩数
type ReactionCounts struct {
	Likes    int64
	Dislikes int64
}

type ReactionRepository interface {
	// React 在一个事务内完成 like/dislike 的互斥切换；帖子不存在返回 ErrNotFound
	React(ctx context.Context, userID, postID string, kind model.ReactionKind) (ReactOutcome, error)
	// Delete 删除 (user, post) 的反应，返回是否真的删掉了一行
	Delete(ctx context.Context, userID, postID string) (bool, error)
	Get(ctx context.Context, userID, postID string) (*model.Reaction, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Reaction, error)
	CountsByPosts(ctx context.Context, postIDs []string) (map[string]ReactionCounts, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository { return &reactionRepository{db: db} }

func (r *reactionRepository) React(ctx context.Context, userID, postID string, kind model.ReactionKind) (ReactOutcome, error) {
	var outcome ReactOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁帖子行，串行化同一帖子上的切换（sqlite 忽略 FOR UPDATE，靠单连接串行）
		var post model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", postID).First(&post).Error; err != nil {
			return translate(err)
		}

		var existing model.Reaction
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil && existing.Kind == kind:
			outcome = ReactUnchanged
			return nil
		case err == nil:
			if err := tx.Delete(&model.Reaction{}, "id = ?", existing.ID).Error; err != nil {
				return err
			}
			outcome = ReactSwitched
		case errors.Is(err, gorm.ErrRecordNotFound):
			outcome = ReactCreated
		default:
			return err
		}

		row := &model.Reaction{ID: uuid.New().String(), UserID: userID, PostID: postID, Kind: kind}
		// 并发下另一事务可能抢先插入，按唯一键覆盖成本次请求的 kind
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"id", "kind", "created_at"}),
		}).Create(row).Error
	})
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

func (r *reactionRepository) Delete(ctx context.Context, userID, postID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reactionRepository) Get(ctx context.Context, userID, postID string) (*model.Reaction, error) {
	var rx model.Reaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&rx).Error; err != nil {
		return nil, translate(err)
	}
	return &rx, nil
}

func (r *reactionRepository) ListByPost(ctx context.Context, postID string) ([]*model.Reaction, error) {
	var res []*model.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&res).Error
	return res, err
}

func (r *reactionRepository) CountsByPosts(ctx context.Context, postIDs []string) (map[string]ReactionCounts, error) {
	out := make(map[string]ReactionCounts, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PostID string
		Kind   model.ReactionKind
		N      int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Select("post_id, kind, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id, kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		c := out[row.PostID]
		switch row.Kind {
		case model.ReactionLike:
			c.Likes = row.N
		case model.ReactionDislike:
			c.Dislikes = row.N
		}
		out[row.PostID] = c
	}
	return out, nil
}
