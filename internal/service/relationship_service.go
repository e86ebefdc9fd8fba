package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/social-api/internal/cache"
	"github.com/d60-Lab/social-api/internal/repository"
)

// RelationshipService 关系链服务。对外以 profile id 寻址，边存的是 user id
type RelationshipService interface {
	Follow(ctx context.Context, userID, profileID string) error
	Unfollow(ctx context.Context, userID, profileID string) error
	ListFollowing(ctx context.Context, profileID string, page, pageSize int) ([]string, error)
	ListFollowers(ctx context.Context, profileID string, page, pageSize int) ([]string, error)
}

type relationshipService struct {
	followRepo  repository.FollowRepository
	profileRepo repository.ProfileRepository
	following   *cache.FollowingCache
}

func NewRelationshipService(followRepo repository.FollowRepository, profileRepo repository.ProfileRepository, following *cache.FollowingCache) RelationshipService {
	return &relationshipService{followRepo: followRepo, profileRepo: profileRepo, following: following}
}

func (s *relationshipService) target(ctx context.Context, profileID string) (string, error) {
	p, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrProfileNotFound
		}
		return "", err
	}
	return p.UserID, nil
}

func (s *relationshipService) Follow(ctx context.Context, userID, profileID string) error {
	toUserID, err := s.target(ctx, profileID)
	if err != nil {
		return err
	}
	if userID == toUserID {
		return ErrFollowSelf
	}
	if err := s.followRepo.Create(ctx, userID, toUserID); err != nil {
		return err
	}
	if s.following != nil {
		s.following.Invalidate(ctx, userID)
	}
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, userID, profileID string) error {
	toUserID, err := s.target(ctx, profileID)
	if err != nil {
		return err
	}
	if err := s.followRepo.Delete(ctx, userID, toUserID); err != nil {
		return err
	}
	if s.following != nil {
		s.following.Invalidate(ctx, userID)
	}
	return nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, profileID string, page, pageSize int) ([]string, error) {
	userID, err := s.target(ctx, profileID)
	if err != nil {
		return nil, err
	}
	offset, limit := pageBounds(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return res, nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, profileID string, page, pageSize int) ([]string, error) {
	userID, err := s.target(ctx, profileID)
	if err != nil {
		return nil, err
	}
	offset, limit := pageBounds(page, pageSize)
	items, err := s.followRepo.ListFollowers(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FollowerID
	}
	return res, nil
}

func pageBounds(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return (page - 1) * pageSize, pageSize
}
