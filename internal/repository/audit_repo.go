package repository

import (
	"Commonfeed/internal/model"
	"context"

	"gorm.io/gorm"
)

// AuditRepo 只追加，不提供更新和删除
type AuditRepo interface {
	Append(ctx context.Context, entry *model.AuditLog) error
}

type AuditRepoImpl struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepo {
	return &AuditRepoImpl{
		db: db,
	}
}

func (s AuditRepoImpl) Append(ctx context.Context, entry *model.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
