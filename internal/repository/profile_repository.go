package repository

import (
	"context"

	"shoppingmall/internal/domain/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile model.Profile) error
	FindByUserID(ctx context.Context, userID string) (model.Profile, error)
}
