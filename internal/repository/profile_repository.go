package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-api/internal/model"
)

// ProfileFilter Username 非空时优先于 Location
type ProfileFilter struct {
	Username string
	Location string
}

type ProfileRepository interface {
	Create(ctx context.Context, p *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	GetByUserIDs(ctx context.Context, userIDs []string) ([]*model.Profile, error)
	List(ctx context.Context, filter ProfileFilter) ([]*model.Profile, error)
	Update(ctx context.Context, p *model.Profile, fields map[string]interface{}) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository { return &profileRepository{db: db} }

func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *profileRepository) GetByUserIDs(ctx context.Context, userIDs []string) ([]*model.Profile, error) {
	if len(userIDs) == 0 {
		return []*model.Profile{}, nil
	}
	var res []*model.Profile
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&res).Error
	return res, err
}

func (r *profileRepository) List(ctx context.Context, filter ProfileFilter) ([]*model.Profile, error) {
	q := r.db.WithContext(ctx).Model(&model.Profile{})
	switch {
	case filter.Username != "":
		q = q.Where("LOWER(username) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.Username))+"%")
	case filter.Location != "":
		q = q.Where("LOWER(location) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.Location))+"%")
	}
	var res []*model.Profile
	err := q.Order("created_at ASC, id ASC").Find(&res).Error
	return res, err
}

// Update 只更新 fields 中给出的列
func (r *profileRepository) Update(ctx context.Context, p *model.Profile, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(p).Updates(fields).Error
}
