package repository

import (
	"context"
	"errors"

	"shoppingmall/internal/domain/model"
	repo "shoppingmall/internal/repository"

	"gorm.io/gorm"
)

type ProfileGormRepository struct {
	db *gorm.DB
}

func NewProfileGormRepository(db *gorm.DB) *ProfileGormRepository {
	return &ProfileGormRepository{db: db}
}

func (r *ProfileGormRepository) Create(ctx context.Context, profile model.Profile) error {
	return r.db.WithContext(ctx).Create(&profile).Error
}

func (r *ProfileGormRepository) FindByUserID(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Profile{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	return p, nil
}
