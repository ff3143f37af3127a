package repository

import (
	"Commonfeed/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepo interface {
	UpsertFollow(ctx context.Context, follow *model.Follow) error
	SoftDeleteFollow(ctx context.Context, uri string) error
	GetFollowSet(ctx context.Context, did string, limit int) ([]string, error)
}

type FollowRepoImpl struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepo {
	return &FollowRepoImpl{
		db: db,
	}
}

func (s FollowRepoImpl) UpsertFollow(ctx context.Context, follow *model.Follow) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uri"}},
		DoNothing: true,
	}).Create(follow).Error
}

func (s FollowRepoImpl) SoftDeleteFollow(ctx context.Context, uri string) error {
	return s.db.WithContext(ctx).Model(&model.Follow{}).Where("uri = ?", uri).Update("is_deleted", true).Error
}

// GetFollowSet 获取某个身份的关注集合，上限之外截断
func (s FollowRepoImpl) GetFollowSet(ctx context.Context, did string, limit int) ([]string, error) {
	var dids []string
	err := s.db.WithContext(ctx).Model(&model.Follow{}).
		Where("author_did = ? AND is_deleted = 0", did).
		Limit(limit).
		Pluck("subject_did", &dids).Error
	if err != nil {
		return nil, err
	}
	return dids, nil
}
