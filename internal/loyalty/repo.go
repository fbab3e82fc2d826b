package loyalty

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
)

// Repository manages persistence for loyalty events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.LoyaltyEvent) error
	ListByCustomerID(ctx context.Context, customerID uuid.UUID) ([]models.LoyaltyEvent, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LoyaltyEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loyalty repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.LoyaltyEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByCustomerID(ctx context.Context, customerID uuid.UUID) ([]models.LoyaltyEvent, error) {
	var events []models.LoyaltyEvent
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LoyaltyEvent, error) {
	var events []models.LoyaltyEvent
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
