package repository

import (
	"Commonfeed/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const cursorRowID = 1

type CursorRepo interface {
	GetCursor(ctx context.Context) (int64, error)
	SaveCursor(ctx context.Context, cursor int64) error
}

type CursorRepoImpl struct {
	db *gorm.DB
}

func NewCursorRepository(db *gorm.DB) CursorRepo {
	return &CursorRepoImpl{
		db: db,
	}
}

// GetCursor 无记录时返回 0，表示首次连接不带游标
func (s CursorRepoImpl) GetCursor(ctx context.Context) (int64, error) {
	var row model.FirehoseCursor
	err := s.db.WithContext(ctx).First(&row, cursorRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Cursor, nil
}

func (s CursorRepoImpl) SaveCursor(ctx context.Context, cursor int64) error {
	now := time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"cursor":     cursor,
			"updated_at": now,
		}),
	}).Create(&model.FirehoseCursor{
		ID:        cursorRowID,
		Cursor:    cursor,
		UpdatedAt: now,
	}).Error
}
