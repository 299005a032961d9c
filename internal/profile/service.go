// internal/profile/service.go

package profile

import (
	"context"
	"errors"
)

var ErrNoEmailOnFile = errors.New("no email on file for user")

type Service interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*Profile, error)

	// Recipient returns the notification address and display name for a
	// user; used by the notify package.
	Recipient(ctx context.Context, userID string) (email, name string, err error)
}

type service struct {
	repo     Repository
	resolver *Resolver
}

func NewService(repo Repository, resolver *Resolver) Service {
	return &service{
		repo:     repo,
		resolver: resolver,
	}
}

func (s *service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Never expose the notification email on public reads
	profile.Email = nil
	return profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*Profile, error) {
	return s.repo.Upsert(ctx, userID, req)
}

func (s *service) Recipient(ctx context.Context, userID string) (string, string, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if profile.Email == nil || *profile.Email == "" {
		return "", "", ErrNoEmailOnFile
	}
	return *profile.Email, s.resolver.DisplayName(ctx, userID), nil
}
