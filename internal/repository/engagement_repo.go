package repository

import (
	"Commonfeed/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepo 反范式化互动计数的累加写入
type EngagementRepo interface {
	BumpLikes(ctx context.Context, postURI string, delta int) error
	BumpReposts(ctx context.Context, postURI string, delta int) error
	BumpReplies(ctx context.Context, postURI string, delta int) error
}

type EngagementRepoImpl struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) EngagementRepo {
	return &EngagementRepoImpl{
		db: db,
	}
}

func (s EngagementRepoImpl) BumpLikes(ctx context.Context, postURI string, delta int) error {
	return s.bump(ctx, postURI, "likes_count", delta)
}

func (s EngagementRepoImpl) BumpReposts(ctx context.Context, postURI string, delta int) error {
	return s.bump(ctx, postURI, "reposts_count", delta)
}

func (s EngagementRepoImpl) BumpReplies(ctx context.Context, postURI string, delta int) error {
	return s.bump(ctx, postURI, "replies_count", delta)
}

func (s EngagementRepoImpl) bump(ctx context.Context, postURI string, column string, delta int) error {
	now := time.Now()
	row := &model.PostEngagement{
		PostURI:   postURI,
		UpdatedAt: now,
	}

	// 首次插入时把增量记到对应列上，负增量落为 0
	initial := delta
	if initial < 0 {
		initial = 0
	}
	switch column {
	case "likes_count":
		row.LikesCount = initial
	case "reposts_count":
		row.RepostsCount = initial
	case "replies_count":
		row.RepliesCount = initial
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "post_uri"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:       gorm.Expr("GREATEST("+column+" + ?, 0)", delta),
			"updated_at": now,
		}),
	}).Create(row).Error
}
