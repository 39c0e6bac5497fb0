package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=users_test

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, description string) (*User, error)
	UpdateProfileImage(ctx context.Context, id uuid.UUID, profileImage string) (*User, error)
	Count(ctx context.Context) (int, error)
}

type UpdateProfileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r UpdateProfileRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.WithMessage(apperr.ErrValidation, "Name is required")
	}
	return nil
}

type Service struct {
	repo  userRepo
	cache *Cache
}

func NewService(repo userRepo, cache *Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.profile")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return user.Sanitized(), nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.update_profile")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateProfile(ctx, id, req.Name, req.Description)
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", id, err)
	}
	s.cache.Invalidate(id)

	return user.Sanitized(), nil
}

func (s *Service) SetProfileImage(ctx context.Context, id uuid.UUID, imagePath string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.set_profile_image")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	user, err := s.repo.UpdateProfileImage(ctx, id, imagePath)
	if err != nil {
		return nil, fmt.Errorf("update profile image %s: %w", id, err)
	}
	s.cache.Invalidate(id)

	return user.Sanitized(), nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
