package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
)

// Repository defines persistence operations for the payment aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindByReferenceForUpdate(ctx context.Context, reference string) (*models.Payment, error)
	// FindLiveByOrder returns the order's payment outside {failed,
	// cancelled}, or gorm.ErrRecordNotFound.
	FindLiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	AppendStatusEvent(ctx context.Context, event *models.PaymentStatusEvent) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// Creator seeds the pending payment written alongside a new order, inside
// the order-creation transaction.
type Creator interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Payment, error)
}
