// internal/activity/service.go

package activity

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("unknown action type")

// NameResolver resolves a user ID to a public display name.
type NameResolver interface {
	DisplayName(ctx context.Context, userID string) string
}

type Service interface {
	Record(ctx context.Context, actionType, itemID, userID string) error
	RecentActivity(ctx context.Context, limit int) ([]*Activity, error)
}

type activityService struct {
	repo  Repository
	names NameResolver
}

func NewService(repo Repository, names NameResolver) Service {
	return &activityService{repo: repo, names: names}
}

func (s *activityService) Record(ctx context.Context, actionType, itemID, userID string) error {
	if actionType != ActionList && actionType != ActionClaim {
		return fmt.Errorf("%w: %s", ErrUnknownAction, actionType)
	}

	return s.repo.Create(ctx, &Activity{
		ActionType: actionType,
		ItemID:     itemID,
		UserID:     userID,
	})
}

func (s *activityService) RecentActivity(ctx context.Context, limit int) ([]*Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	activities, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	for _, a := range activities {
		a.UserName = s.names.DisplayName(ctx, a.UserID)
	}

	return activities, nil
}
