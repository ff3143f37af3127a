package repository

import (
	"Commonfeed/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriberRepo interface {
	UpsertSubscriber(ctx context.Context, sub *model.Subscriber) error
	Exists(ctx context.Context, did string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type SubscriberRepoImpl struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) SubscriberRepo {
	return &SubscriberRepoImpl{
		db: db,
	}
}

func (s SubscriberRepoImpl) UpsertSubscriber(ctx context.Context, sub *model.Subscriber) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "did"}},
		DoUpdates: clause.AssignmentColumns([]string{"handle"}),
	}).Create(sub).Error
}

func (s SubscriberRepoImpl) Exists(ctx context.Context, did string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Subscriber{}).Where("did = ?", did).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s SubscriberRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Subscriber{}).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
