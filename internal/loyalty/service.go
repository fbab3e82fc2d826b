package loyalty

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	dbpkg "github.com/freshfoldhq/freshfold-backend/pkg/db"
	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

// Service credits loyalty points for completed orders.
type Service interface {
	AwardOrderCompleted(ctx context.Context, order *models.Order) error
	Balance(ctx context.Context, customerID uuid.UUID) (int, error)
}

type service struct {
	repo Repository
	cfg  config.LoyaltyConfig
}

// NewService wires the loyalty service.
func NewService(repo Repository, cfg config.LoyaltyConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

// AwardOrderCompleted credits points for an order's first completion. The
// unique (order_id, type) index makes the credit at-most-once: a duplicate
// invocation hits the index and is treated as already done.
func (s *service) AwardOrderCompleted(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order required")
	}

	points := order.Total.Mul(decimal.NewFromInt(int64(s.cfg.PointsRate))).IntPart()
	if points < 0 {
		points = 0
	}

	event := &models.LoyaltyEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Type:       enums.LoyaltyEventOrderCompleted,
		Points:     int(points),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		if dbpkg.IsUniqueViolation(err, "idx_loyalty_once_per_order") {
			return nil
		}
		return err
	}
	return nil
}

// Balance sums the customer's credited points.
func (s *service) Balance(ctx context.Context, customerID uuid.UUID) (int, error) {
	events, err := s.repo.ListByCustomerID(ctx, customerID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, event := range events {
		total += event.Points
	}
	return total, nil
}
