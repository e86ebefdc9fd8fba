package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
)

// ProfileInput 创建资料
type ProfileInput struct {
	Username  string `json:"username" validate:"required,max=100"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Bio       string `json:"bio" validate:"max=100"`
	Location  string `json:"location" validate:"max=100"`
}

// ProfilePatch 部分更新，nil 字段不动
type ProfilePatch struct {
	Username  *string `json:"username" validate:"omitempty,min=1,max=100"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=100"`
	Location  *string `json:"location" validate:"omitempty,max=100"`
}

func (p ProfilePatch) fields() map[string]interface{} {
	out := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			out[col] = *v
		}
	}
	set("username", p.Username)
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("bio", p.Bio)
	set("location", p.Location)
	return out
}

type ProfileService interface {
	Create(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error)
	Get(ctx context.Context, id string) (*model.Profile, error)
	Mine(ctx context.Context, userID string) (*model.Profile, error)
	List(ctx context.Context, filter repository.ProfileFilter) ([]*model.Profile, error)
	UpdateMine(ctx context.Context, userID string, patch ProfilePatch) (*model.Profile, error)
}

type profileService struct {
	profiles repository.ProfileRepository
}

func NewProfileService(profiles repository.ProfileRepository) ProfileService {
	return &profileService{profiles: profiles}
}

func (s *profileService) Create(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error) {
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	p := &model.Profile{
		ID:        uuid.New().String(),
		UserID:    userID,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Location:  in.Location,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (s *profileService) Get(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *profileService) Mine(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *profileService) List(ctx context.Context, filter repository.ProfileFilter) ([]*model.Profile, error) {
	return s.profiles.List(ctx, filter)
}

func (s *profileService) UpdateMine(ctx context.Context, userID string, patch ProfilePatch) (*model.Profile, error) {
	if err := validateStruct(&patch); err != nil {
		return nil, err
	}
	p, err := s.Mine(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, p, patch.fields()); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.profiles.GetByID(ctx, p.ID)
}
