package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/api/middleware"
	"github.com/freshfoldhq/freshfold-backend/api/responses"
	"github.com/freshfoldhq/freshfold-backend/api/validators"
	"github.com/freshfoldhq/freshfold-backend/internal/orders"
	"github.com/freshfoldhq/freshfold-backend/internal/tracking"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/pagination"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

type createGarmentRequest struct {
	Description  string  `json:"description" validate:"required,max=500"`
	Instructions *string `json:"instructions,omitempty"`
	UnitPrice    *string `json:"unit_price,omitempty"`
}

type createItemRequest struct {
	Service   string                 `json:"service" validate:"required,max=100"`
	Quantity  int                    `json:"quantity" validate:"required,min=1"`
	UnitPrice string                 `json:"unit_price" validate:"required"`
	Garments  []createGarmentRequest `json:"garments,omitempty" validate:"dive"`
}

type createOrderRequest struct {
	CustomerID    *string             `json:"customer_id,omitempty"`
	Items         []createItemRequest `json:"items" validate:"required,min=1,dive"`
	PickupAddr    *types.Address      `json:"pickup_address,omitempty"`
	DeliveryAddr  *types.Address      `json:"delivery_address,omitempty"`
	PickupDate    *time.Time          `json:"pickup_date,omitempty"`
	DeliveryDate  *time.Time          `json:"delivery_date,omitempty"`
	Urgent        bool                `json:"urgent"`
	PaymentMethod string              `json:"payment_method" validate:"required"`
	Tax           *string             `json:"tax,omitempty"`
	DeliveryFee   *string             `json:"delivery_fee,omitempty"`
	Discount      *string             `json:"discount,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
}

// CreateOrder composes an order with its pending payment. Customers order
// for themselves; admins may order on a customer's behalf.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := buildCreateOrderInput(req, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func buildCreateOrderInput(req createOrderRequest, actor types.Actor) (orders.CreateOrderInput, error) {
	customerID := actor.ID
	if req.CustomerID != nil {
		parsed, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return orders.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id")
		}
		if actor.Role == enums.ActorRoleCustomer && parsed != actor.ID {
			return orders.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeForbidden, "customers order for themselves")
		}
		customerID = parsed
	}

	method := enums.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return orders.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	items := make([]orders.CreateItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		unitPrice, err := parseMoney(item.UnitPrice, "unit_price")
		if err != nil {
			return orders.CreateOrderInput{}, err
		}
		garments := make([]orders.CreateGarmentInput, 0, len(item.Garments))
		for _, garment := range item.Garments {
			g := orders.CreateGarmentInput{
				Description:  validators.SanitizeString(garment.Description, 500),
				Instructions: garment.Instructions,
			}
			if garment.UnitPrice != nil {
				price, err := parseMoney(*garment.UnitPrice, "garment unit_price")
				if err != nil {
					return orders.CreateOrderInput{}, err
				}
				g.UnitPrice = &price
			}
			garments = append(garments, g)
		}
		items = append(items, orders.CreateItemInput{
			Service:   validators.SanitizeString(item.Service, 100),
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			Garments:  garments,
		})
	}

	input := orders.CreateOrderInput{
		CustomerID:    customerID,
		Items:         items,
		PickupAddr:    req.PickupAddr,
		DeliveryAddr:  req.DeliveryAddr,
		PickupDate:    req.PickupDate,
		DeliveryDate:  req.DeliveryDate,
		Urgent:        req.Urgent,
		PaymentMethod: method,
		Notes:         req.Notes,
	}
	if req.Tax != nil {
		tax, err := parseMoney(*req.Tax, "tax")
		if err != nil {
			return orders.CreateOrderInput{}, err
		}
		input.Tax = &tax
	}
	if req.DeliveryFee != nil {
		fee, err := parseMoney(*req.DeliveryFee, "delivery_fee")
		if err != nil {
			return orders.CreateOrderInput{}, err
		}
		input.DeliveryFee = &fee
	}
	if req.Discount != nil {
		discount, err := parseMoney(*req.Discount, "discount")
		if err != nil {
			return orders.CreateOrderInput{}, err
		}
		input.Discount = discount
	}
	return input, nil
}

func parseMoney(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid decimal value").
			WithDetails(map[string]string{"field": field})
	}
	if value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative").
			WithDetails(map[string]string{"field": field})
	}
	return value, nil
}

// GetOrder returns the full aggregate: lines, garments, status history.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns the actor's scoped, cursor-paginated order list.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		filters := orders.ListFilters{}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := enums.OrderStatus(raw)
			if !status.IsValid() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			filters.Status = &status
		}
		if raw := r.URL.Query().Get("date_from"); raw != "" {
			from, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date_from must be RFC3339"))
				return
			}
			filters.DateFrom = &from
		}
		if raw := r.URL.Query().Get("date_to"); raw != "" {
			to, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date_to must be RFC3339"))
				return
			}
			filters.DateTo = &to
		}

		list, err := svc.List(ctx, actor, params, filters)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type transitionOrderRequest struct {
	Target string  `json:"target" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

// TransitionOrder moves an order along its lifecycle.
func TransitionOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req transitionOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		target := enums.OrderStatus(req.Target)
		if !target.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		order, err := svc.Transition(ctx, orders.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Actor:   actor,
			Notes:   req.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type cancelOrderRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// CancelOrder is shorthand for a transition to cancelled; the state machine
// applies the same role and transition checks.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		req := cancelOrderRequest{}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		order, err := svc.Transition(ctx, orders.TransitionInput{
			OrderID: orderID,
			Target:  enums.OrderStatusCancelled,
			Actor:   actor,
			Notes:   req.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type addGarmentRequest struct {
	Description  string  `json:"description" validate:"required,max=500"`
	Instructions *string `json:"instructions,omitempty"`
}

// AddGarment appends a garment to an order line after intake. The line is
// addressed by its zero-based position within the order.
func AddGarment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		position, err := strconv.Atoi(chi.URLParam(r, "itemPosition"))
		if err != nil || position < 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item position").
				WithDetails(map[string]string{"param": "itemPosition"}))
			return
		}

		var req addGarmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		garment, err := svc.AddGarment(ctx, orders.AddGarmentInput{
			OrderID:      orderID,
			ItemPosition: position,
			Description:  validators.SanitizeString(req.Description, 500),
			Instructions: req.Instructions,
			Actor:        actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, garment)
	}
}

type confirmGarmentRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ConfirmGarment records the provider's receipt attestation for a garment.
func ConfirmGarment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemCode := chi.URLParam(r, "itemCode")
		if itemCode == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item code required"))
			return
		}

		var req confirmGarmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		garment, err := svc.ConfirmGarment(ctx, orders.ConfirmGarmentInput{
			OrderID:   orderID,
			ItemCode:  itemCode,
			Confirmed: req.Confirmed,
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, garment)
	}
}

// OrderTracking returns the projected display steps for an order. Access is
// gated through the same read authorization as the order itself.
func OrderTracking(svc orders.Service, projector *tracking.Projector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if _, err := svc.Get(ctx, orderID, actor); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		steps, err := projector.Steps(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"steps": steps})
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id in path").
			WithDetails(map[string]string{"param": name})
	}
	return parsed, nil
}

func parseUUIDQuery(raw string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id in query")
	}
	return parsed, nil
}
