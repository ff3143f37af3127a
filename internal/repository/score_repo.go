package repository

import (
	"Commonfeed/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RankedPost 从分数表读回的排行行
type RankedPost struct {
	PostURI string  `json:"post_uri"`
	Total   float64 `json:"total"`
}

type ScoreRepo interface {
	SaveScoreRecord(ctx context.Context, record *model.ScoreRecord) error
	GetRankedSet(ctx context.Context, epochID uint64, limit int64) ([]*RankedPost, error)
}

type ScoreRepoImpl struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) ScoreRepo {
	return &ScoreRepoImpl{
		db: db,
	}
}

// SaveScoreRecord 以 (post, epoch) 为键覆写分数分解，历史纪元的行不受影响
func (s ScoreRepoImpl) SaveScoreRecord(ctx context.Context, record *model.ScoreRecord) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_uri"}, {Name: "epoch_id"}},
		UpdateAll: true,
	}).Create(record).Error
}

// GetRankedSet 从事实源读回当前纪元的完整排行，排除已删除的帖子。
// 发布时必须走这里而不是内存中的打分结果，增量运行只打了一部分帖子。
func (s ScoreRepoImpl) GetRankedSet(ctx context.Context, epochID uint64, limit int64) ([]*RankedPost, error) {
	var ranked []*RankedPost
	err := s.db.WithContext(ctx).Raw(`
		SELECT s.post_uri, s.total
		FROM score_records s
		JOIN posts p ON p.uri = s.post_uri
		WHERE s.epoch_id = ? AND p.is_deleted = 0
		ORDER BY s.total DESC
		LIMIT ?`, epochID, limit).Scan(&ranked).Error
	if err != nil {
		return nil, err
	}
	return ranked, nil
}
