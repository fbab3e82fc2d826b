package loyalty

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

type stubRepo struct {
	events    []models.LoyaltyEvent
	createErr error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, event *models.LoyaltyEvent) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.events {
		if existing.OrderID == event.OrderID && existing.Type == event.Type {
			return fmt.Errorf("ERROR: duplicate key value violates unique constraint \"idx_loyalty_once_per_order\"")
		}
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *stubRepo) ListByCustomerID(ctx context.Context, customerID uuid.UUID) ([]models.LoyaltyEvent, error) {
	var out []models.LoyaltyEvent
	for _, event := range s.events {
		if event.CustomerID == customerID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *stubRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LoyaltyEvent, error) {
	var out []models.LoyaltyEvent
	for _, event := range s.events {
		if event.OrderID == orderID {
			out = append(out, event)
		}
	}
	return out, nil
}

func completedOrder(total string) *models.Order {
	amount, _ := decimal.NewFromString(total)
	return &models.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     enums.OrderStatusCompleted,
		Total:      amount,
	}
}

func TestAwardOrderCompletedCreditsWholePointsPerCurrencyUnit(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo, config.LoyaltyConfig{PointsRate: 1})
	require.NoError(t, err)
	order := completedOrder("38.00")

	require.NoError(t, svc.AwardOrderCompleted(context.Background(), order))

	require.Len(t, repo.events, 1)
	require.Equal(t, 38, repo.events[0].Points)
	require.Equal(t, enums.LoyaltyEventOrderCompleted, repo.events[0].Type)
	require.Equal(t, order.CustomerID, repo.events[0].CustomerID)
}

func TestAwardOrderCompletedTruncatesFractionalPoints(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo, config.LoyaltyConfig{PointsRate: 1})
	require.NoError(t, err)

	require.NoError(t, svc.AwardOrderCompleted(context.Background(), completedOrder("21.50")))
	require.Equal(t, 21, repo.events[0].Points)
}

func TestAwardOrderCompletedHonorsPointsRate(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo, config.LoyaltyConfig{PointsRate: 2})
	require.NoError(t, err)

	require.NoError(t, svc.AwardOrderCompleted(context.Background(), completedOrder("10.00")))
	require.Equal(t, 20, repo.events[0].Points)
}

func TestAwardOrderCompletedIsIdempotentPerOrder(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo, config.LoyaltyConfig{PointsRate: 1})
	require.NoError(t, err)
	order := completedOrder("38.00")

	require.NoError(t, svc.AwardOrderCompleted(context.Background(), order))
	require.NoError(t, svc.AwardOrderCompleted(context.Background(), order), "duplicate credit is absorbed")
	require.Len(t, repo.events, 1)
}

func TestAwardOrderCompletedSurfacesOtherErrors(t *testing.T) {
	repo := &stubRepo{createErr: errors.New("connection reset")}
	svc, err := NewService(repo, config.LoyaltyConfig{PointsRate: 1})
	require.NoError(t, err)

	require.Error(t, svc.AwardOrderCompleted(context.Background(), completedOrder("38.00")))
}

func TestBalanceSumsCustomerEvents(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo, config.LoyaltyConfig{PointsRate: 1})
	require.NoError(t, err)

	customerID := uuid.New()
	first := completedOrder("38.00")
	first.CustomerID = customerID
	second := completedOrder("21.50")
	second.CustomerID = customerID

	require.NoError(t, svc.AwardOrderCompleted(context.Background(), first))
	require.NoError(t, svc.AwardOrderCompleted(context.Background(), second))
	require.NoError(t, svc.AwardOrderCompleted(context.Background(), completedOrder("100.00")))

	balance, err := svc.Balance(context.Background(), customerID)
	require.NoError(t, err)
	require.Equal(t, 59, balance)
}
