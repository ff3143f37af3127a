package repository

import (
	"Commonfeed/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type VoteRepo interface {
	UpsertVote(ctx context.Context, vote *model.Vote) (created bool, err error)
	GetVotesByEpoch(ctx context.Context, epochID uint64) ([]*model.Vote, error)
	CountVotes(ctx context.Context, epochID uint64) (int64, error)
}

type VoteRepoImpl struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepo {
	return &VoteRepoImpl{
		db: db,
	}
}

// UpsertVote (voter, epoch) 唯一，重复提交更新权重而不是新增一行
func (s VoteRepoImpl) UpsertVote(ctx context.Context, vote *model.Vote) (bool, error) {
	var existing model.Vote
	err := s.db.WithContext(ctx).
		Where("voter_did = ? AND epoch_id = ?", vote.VoterDID, vote.EpochID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			vote.CreatedAt = time.Now()
			vote.UpdatedAt = vote.CreatedAt
			if err = s.db.WithContext(ctx).Create(vote).Error; err != nil {
				return false, err
			}
			return true, nil
		}
		return false, err
	}

	err = s.db.WithContext(ctx).Model(&model.Vote{}).
		Where("voter_did = ? AND epoch_id = ?", vote.VoterDID, vote.EpochID).
		Updates(map[string]interface{}{
			"weight_recency":    vote.Weights.Recency,
			"weight_engagement": vote.Weights.Engagement,
			"weight_bridging":   vote.Weights.Bridging,
			"weight_diversity":  vote.Weights.Diversity,
			"weight_relevance":  vote.Weights.Relevance,
			"updated_at":        time.Now(),
		}).Error
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s VoteRepoImpl) GetVotesByEpoch(ctx context.Context, epochID uint64) ([]*model.Vote, error) {
	var votes []*model.Vote
	err := s.db.WithContext(ctx).Where("epoch_id = ?", epochID).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (s VoteRepoImpl) CountVotes(ctx context.Context, epochID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Vote{}).Where("epoch_id = ?", epochID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
