package repository

import (
	"Commonfeed/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type EpochRepo interface {
	GetCurrentEpoch(ctx context.Context) (*model.Epoch, error)
	GetEpoch(ctx context.Context, id uint64) (*model.Epoch, error)
	CreateEpoch(ctx context.Context, epoch *model.Epoch) error
	UpdateEpoch(ctx context.Context, epoch *model.Epoch) error
	Transition(ctx context.Context, closing *model.Epoch, next *model.Epoch) error
	GetDueEpochs(ctx context.Context, now time.Time) ([]*model.Epoch, error)
	IncrementVoteCount(ctx context.Context, id uint64) error
}

type EpochRepoImpl struct {
	db *gorm.DB
}

func NewEpochRepository(db *gorm.DB) EpochRepo {
	return &EpochRepoImpl{
		db: db,
	}
}

// GetCurrentEpoch 获取当前生效的纪元（唯一一个非 closed 状态的纪元）
func (s EpochRepoImpl) GetCurrentEpoch(ctx context.Context) (*model.Epoch, error) {
	var epoch model.Epoch
	err := s.db.WithContext(ctx).
		Where("status <> ?", "closed").
		Order("id DESC").
		First(&epoch).Error
	if err != nil {
		return nil, err
	}
	return &epoch, nil
}

func (s EpochRepoImpl) GetEpoch(ctx context.Context, id uint64) (*model.Epoch, error) {
	var epoch model.Epoch
	err := s.db.WithContext(ctx).First(&epoch, id).Error
	if err != nil {
		return nil, err
	}
	return &epoch, nil
}

func (s EpochRepoImpl) CreateEpoch(ctx context.Context, epoch *model.Epoch) error {
	return s.db.WithContext(ctx).Create(epoch).Error
}

func (s EpochRepoImpl) UpdateEpoch(ctx context.Context, epoch *model.Epoch) error {
	return s.db.WithContext(ctx).Save(epoch).Error
}

// Transition 在同一个事务里关闭旧纪元并创建新纪元，保证任一时刻只有一个生效纪元
func (s EpochRepoImpl) Transition(ctx context.Context, closing *model.Epoch, next *model.Epoch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(closing).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

// GetDueEpochs 获取投票窗口已过且开启了自动切换的纪元
func (s EpochRepoImpl) GetDueEpochs(ctx context.Context, now time.Time) ([]*model.Epoch, error) {
	var epochs []*model.Epoch
	err := s.db.WithContext(ctx).
		Where("status = ? AND auto_transition = 1 AND voting_ends_at IS NOT NULL AND voting_ends_at <= ?", "voting", now).
		Find(&epochs).Error
	if err != nil {
		return nil, err
	}
	return epochs, nil
}

func (s EpochRepoImpl) IncrementVoteCount(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Model(&model.Epoch{}).
		Where("id = ?", id).
		Update("vote_count", gorm.Expr("vote_count + 1")).Error
}
