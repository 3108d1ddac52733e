package plans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/pkg/db/models"
)

// Repository manages persistence for payment plans.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, plan *models.PaymentPlan) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PaymentPlan, error)
	SetStartDate(ctx context.Context, plan *models.PaymentPlan, start time.Time) error
	Deactivate(ctx context.Context, orderID uuid.UUID) error
	ListActiveOrderIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a plans repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, plan *models.PaymentPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PaymentPlan, error) {
	var plan models.PaymentPlan
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) SetStartDate(ctx context.Context, plan *models.PaymentPlan, start time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(plan).
		Update("start_date", start).Error; err != nil {
		return err
	}
	plan.StartDate = &start
	return nil
}

func (r *repository) Deactivate(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentPlan{}).
		Where("order_id = ?", orderID).
		Update("active", false).Error
}

func (r *repository) ListActiveOrderIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.PaymentPlan{}).
		Where("active = ? AND monthly_amount > 0", true).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
