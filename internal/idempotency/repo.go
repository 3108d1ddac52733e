package idempotency

import (
	"context"

	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/pkg/db/models"
)

// Repository persists idempotency key claims. The (key, method, path)
// unique index is the sole arbiter of who wins a concurrent claim.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, record *models.IdempotencyKey) error
	Find(ctx context.Context, key, method, path string) (*models.IdempotencyKey, error)
	Finalize(ctx context.Context, key, method, path string, statusCode int, responseBody string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an idempotency repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, record *models.IdempotencyKey) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) Find(ctx context.Context, key, method, path string) (*models.IdempotencyKey, error) {
	var record models.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("key = ? AND method = ? AND path = ?", key, method, path).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Finalize(ctx context.Context, key, method, path string, statusCode int, responseBody string) error {
	return r.db.WithContext(ctx).
		Model(&models.IdempotencyKey{}).
		Where("key = ? AND method = ? AND path = ?", key, method, path).
		Updates(map[string]interface{}{
			"status_code":   statusCode,
			"response_body": responseBody,
		}).Error
}
