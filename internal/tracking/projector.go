package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
)

// locationByStatus is a fixed, total mapping from order status to a coarse
// physical location. Cancelled maps to the neutral fallback rather than an
// error.
var locationByStatus = map[enums.OrderStatus]enums.TrackingLocation{
	enums.OrderStatusPending:          enums.TrackingLocationWithCustomer,
	enums.OrderStatusConfirmed:        enums.TrackingLocationWithCustomer,
	enums.OrderStatusAssigned:         enums.TrackingLocationWithCustomer,
	enums.OrderStatusInProgress:       enums.TrackingLocationAtFacility,
	enums.OrderStatusReadyForPickup:   enums.TrackingLocationAtFacility,
	enums.OrderStatusPickedUp:         enums.TrackingLocationInTransit,
	enums.OrderStatusReadyForDelivery: enums.TrackingLocationInTransit,
	enums.OrderStatusCompleted:        enums.TrackingLocationDelivered,
	enums.OrderStatusCancelled:        enums.TrackingLocationNone,
}

// LocationFor derives the display location for an order status.
func LocationFor(status enums.OrderStatus) enums.TrackingLocation {
	if location, ok := locationByStatus[status]; ok {
		return location
	}
	return enums.TrackingLocationNone
}

// Repository persists and reads tracking steps.
type Repository interface {
	Create(ctx context.Context, step *models.TrackingStep) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.TrackingStep, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tracking repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, step *models.TrackingStep) error {
	return r.db.WithContext(ctx).Create(step).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.TrackingStep, error) {
	var steps []models.TrackingStep
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// Projector derives and persists display steps from order status changes.
// It holds no state authority; a lost step only degrades the display.
type Projector struct {
	repo Repository
}

func NewProjector(repo Repository) *Projector {
	return &Projector{repo: repo}
}

// Project appends the tracking step for the given status.
func (p *Projector) Project(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	step := &models.TrackingStep{
		OrderID:     orderID,
		OrderStatus: status,
		Location:    LocationFor(status),
	}
	if err := p.repo.Create(ctx, step); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist tracking step")
	}
	return nil
}

// Steps returns the projected steps for an order, oldest first.
func (p *Projector) Steps(ctx context.Context, orderID uuid.UUID) ([]models.TrackingStep, error) {
	steps, err := p.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tracking steps")
	}
	return steps, nil
}
