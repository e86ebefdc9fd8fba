package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-api/internal/model"
)

// PostFilter 列表过滤条件：Title 非空时优先，CreatedDate 被忽略
type PostFilter struct {
	Title       string
	CreatedDate *time.Time
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	// CreateIfAbsent 主键已存在时不写，返回是否新建
	CreateIfAbsent(ctx context.Context, post *model.Post) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter PostFilter) ([]*model.Post, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Post, error)
	// ListByOwners 按 created_at 倒序
	ListByOwners(ctx context.Context, ownerIDs []string) ([]*model.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) CreateIfAbsent(ctx context.Context, post *model.Post) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(post)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*model.Post, error) {
	q := r.db.WithContext(ctx).Model(&model.Post{})
	switch {
	case filter.Title != "":
		q = q.Where("LOWER(title) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.Title))+"%")
	case filter.CreatedDate != nil:
		d := filter.CreatedDate.UTC()
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		q = q.Where("created_at >= ? AND created_at < ?", start, start.AddDate(0, 0, 1))
	}
	var res []*model.Post
	err := q.Order("created_at ASC, id ASC").Find(&res).Error
	return res, err
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Post, error) {
	var res []*model.Post
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&res).Error
	return res, err
}

func (r *postRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*model.Post, error) {
	if len(ownerIDs) == 0 {
		return []*model.Post{}, nil
	}
	var res []*model.Post
	err := r.db.WithContext(ctx).
		Where("owner_id IN ?", ownerIDs).
		Order("created_at DESC, id DESC").
		Find(&res).Error
	return res, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
