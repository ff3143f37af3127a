package repository

import (
	"Commonfeed/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionRepo 点赞与转发的持久化，二者共同构成互动参与者来源
type InteractionRepo interface {
	UpsertLike(ctx context.Context, like *model.Like) error
	GetLike(ctx context.Context, uri string) (*model.Like, error)
	SoftDeleteLike(ctx context.Context, uri string) error
	UpsertRepost(ctx context.Context, repost *model.Repost) error
	GetRepost(ctx context.Context, uri string) (*model.Repost, error)
	SoftDeleteRepost(ctx context.Context, uri string) error
	GetEngagerDIDs(ctx context.Context, postURI string, limit int) ([]string, error)
}

type InteractionRepoImpl struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepo {
	return &InteractionRepoImpl{
		db: db,
	}
}

func (s InteractionRepoImpl) UpsertLike(ctx context.Context, like *model.Like) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uri"}},
		DoNothing: true,
	}).Create(like).Error
}

func (s InteractionRepoImpl) GetLike(ctx context.Context, uri string) (*model.Like, error) {
	var like model.Like
	err := s.db.WithContext(ctx).Where("uri = ?", uri).First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (s InteractionRepoImpl) SoftDeleteLike(ctx context.Context, uri string) error {
	return s.db.WithContext(ctx).Model(&model.Like{}).Where("uri = ?", uri).Update("is_deleted", true).Error
}

func (s InteractionRepoImpl) UpsertRepost(ctx context.Context, repost *model.Repost) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uri"}},
		DoNothing: true,
	}).Create(repost).Error
}

func (s InteractionRepoImpl) GetRepost(ctx context.Context, uri string) (*model.Repost, error) {
	var repost model.Repost
	err := s.db.WithContext(ctx).Where("uri = ?", uri).First(&repost).Error
	if err != nil {
		return nil, err
	}
	return &repost, nil
}

func (s InteractionRepoImpl) SoftDeleteRepost(ctx context.Context, uri string) error {
	return s.db.WithContext(ctx).Model(&model.Repost{}).Where("uri = ?", uri).Update("is_deleted", true).Error
}

// GetEngagerDIDs 获取与帖子互动过（点赞或转发）的去重身份列表
func (s InteractionRepoImpl) GetEngagerDIDs(ctx context.Context, postURI string, limit int) ([]string, error) {
	var dids []string
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT author_did FROM (
			SELECT author_did FROM likes WHERE subject_uri = ? AND is_deleted = 0
			UNION
			SELECT author_did FROM reposts WHERE subject_uri = ? AND is_deleted = 0
		) engagers
		LIMIT ?`, postURI, postURI, limit).Scan(&dids).Error
	if err != nil {
		return nil, err
	}
	return dids, nil
}
