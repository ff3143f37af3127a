package repository

import (
	"Commonfeed/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostCandidate 候选帖子及其互动计数，打分管道的输入行
type PostCandidate struct {
	URI          string    `json:"uri"`
	AuthorDID    string    `json:"author_did"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
	LikesCount   int       `json:"likes_count"`
	RepostsCount int       `json:"reposts_count"`
	RepliesCount int       `json:"replies_count"`
}

type PostRepo interface {
	UpsertPost(ctx context.Context, post *model.Post) error
	SoftDeletePost(ctx context.Context, uri string) error
	GetPost(ctx context.Context, uri string) (*model.Post, error)
	GetRecentCandidates(ctx context.Context, since time.Time, limit int) ([]*PostCandidate, error)
	GetChangedCandidates(ctx context.Context, epochID uint64, lastRun time.Time, since time.Time, limit int) ([]*PostCandidate, error)
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepo {
	return &PostRepoImpl{
		db: db,
	}
}

// UpsertPost 幂等写入，流可能重放已处理过的事件
func (s PostRepoImpl) UpsertPost(ctx context.Context, post *model.Post) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uri"}},
		DoNothing: true,
	}).Create(post).Error
}

func (s PostRepoImpl) SoftDeletePost(ctx context.Context, uri string) error {
	return s.db.WithContext(ctx).Model(&model.Post{}).Where("uri = ?", uri).Update("is_deleted", true).Error
}

func (s PostRepoImpl) GetPost(ctx context.Context, uri string) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).Where("uri = ?", uri).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetRecentCandidates 全量候选：时间窗口内未删除的帖子按时间倒序，带互动计数
func (s PostRepoImpl) GetRecentCandidates(ctx context.Context, since time.Time, limit int) ([]*PostCandidate, error) {
	var candidates []*PostCandidate
	err := s.db.WithContext(ctx).Raw(`
		SELECT p.uri, p.author_did, p.text, p.created_at,
			COALESCE(e.likes_count, 0) AS likes_count,
			COALESCE(e.reposts_count, 0) AS reposts_count,
			COALESCE(e.replies_count, 0) AS replies_count
		FROM posts p
		LEFT JOIN post_engagements e ON e.post_uri = p.uri
		WHERE p.is_deleted = 0 AND p.created_at >= ?
		ORDER BY p.created_at DESC
		LIMIT ?`, since, limit).Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// GetChangedCandidates 增量候选：上次运行以来新建且未在本纪元打分的帖子，
// 加上互动计数在打分之后又变化过的帖子。
// 变更检测依赖 post_engagements.updated_at，该时间戳并不严格跟踪每一次
// 互动增量，两次运行之间存在漏检的可能，这里保持该契约不做修补。
func (s PostRepoImpl) GetChangedCandidates(ctx context.Context, epochID uint64, lastRun time.Time, since time.Time, limit int) ([]*PostCandidate, error) {
	var candidates []*PostCandidate
	err := s.db.WithContext(ctx).Raw(`
		SELECT p.uri, p.author_did, p.text, p.created_at,
			COALESCE(e.likes_count, 0) AS likes_count,
			COALESCE(e.reposts_count, 0) AS reposts_count,
			COALESCE(e.replies_count, 0) AS replies_count
		FROM posts p
		LEFT JOIN post_engagements e ON e.post_uri = p.uri
		LEFT JOIN score_records s ON s.post_uri = p.uri AND s.epoch_id = ?
		WHERE p.is_deleted = 0 AND p.created_at >= ?
			AND (
				(s.post_uri IS NULL AND p.created_at >= ?)
				OR (s.post_uri IS NOT NULL AND e.updated_at > s.scored_at)
			)
		ORDER BY p.created_at DESC
		LIMIT ?`, epochID, since, lastRun, limit).Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
