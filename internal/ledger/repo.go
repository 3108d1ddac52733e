package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/contactevin2u/orderops-api/pkg/db/models"
	"github.com/contactevin2u/orderops-api/pkg/enums"
)

// Repository manages persistence for ledger entries. Entries are append-only:
// the repository exposes no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	// CreateIfAbsent inserts the entry unless a unique index already holds
	// its slot, reporting whether a row was written. A lost race inside a
	// surrounding transaction must not abort it, so the conflict is resolved
	// in the statement itself rather than by inspecting the error.
	CreateIfAbsent(ctx context.Context, entry *models.LedgerEntry) (bool, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	SumByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	MonthlyPeriods(ctx context.Context, orderID uuid.UUID) (map[string]struct{}, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateIfAbsent(ctx context.Context, entry *models.LedgerEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("order_id = ?", orderID).
		Select("CAST(COALESCE(SUM(amount), 0) AS TEXT)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *repository) MonthlyPeriods(ctx context.Context, orderID uuid.UUID) (map[string]struct{}, error) {
	var periods []string
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("order_id = ? AND kind = ? AND period IS NOT NULL", orderID, enums.LedgerKindMonthlyCharge).
		Pluck("period", &periods).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(periods))
	for _, p := range periods {
		set[p] = struct{}{}
	}
	return set, nil
}
