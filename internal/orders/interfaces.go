package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/pagination"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreateGarment(ctx context.Context, garment *models.ClothingItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// FindByIDForUpdate locks the order row so the transition check and
	// write are atomic per record.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindItemByPosition(ctx context.Context, orderID uuid.UUID, position int) (*models.OrderItem, error)
	FindGarmentByCode(ctx context.Context, orderID uuid.UUID, itemCode string) (*models.ClothingItem, error)
	FindItemsWithGarments(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	CountGarments(ctx context.Context, orderID uuid.UUID) (int64, error)
	AppendStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateGarment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, actor types.Actor, params pagination.Params, filters ListFilters) (*OrderList, error)
}
