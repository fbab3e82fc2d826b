package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/freshfoldhq/freshfold-backend/api/middleware"
	"github.com/freshfoldhq/freshfold-backend/api/responses"
	"github.com/freshfoldhq/freshfold-backend/api/validators"
	"github.com/freshfoldhq/freshfold-backend/internal/assignment"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
)

// SelfAssignOrder lets a provider claim an open order. The first claim wins;
// later ones get a conflict.
func SelfAssignOrder(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
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

		order, err := svc.SelfAssign(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type adminAssignRequest struct {
	ProviderID string  `json:"provider_id" validate:"required"`
	Notes      *string `json:"notes,omitempty"`
}

// AdminAssignOrder binds or rebinds a provider to an order.
func AdminAssignOrder(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req adminAssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid provider id"))
			return
		}

		order, err := svc.AdminAssign(ctx, assignment.AdminAssignInput{
			OrderID:    orderID,
			ProviderID: providerID,
			Actor:      actor,
			Notes:      req.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
