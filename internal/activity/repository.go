// internal/activity/repository.go

package activity

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, activity *Activity) error
	Recent(ctx context.Context, limit int) ([]*Activity, error)
}
