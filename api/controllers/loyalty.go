package controllers

import (
	"net/http"

	"github.com/freshfoldhq/freshfold-backend/api/middleware"
	"github.com/freshfoldhq/freshfold-backend/api/responses"
	"github.com/freshfoldhq/freshfold-backend/internal/loyalty"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
)

// LoyaltyBalance returns the actor's point balance. Admins may read any
// customer's balance via the customer_id query parameter.
func LoyaltyBalance(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customerID := actor.ID
		if raw := r.URL.Query().Get("customer_id"); raw != "" {
			if actor.Role != enums.ActorRoleAdmin && actor.Role != enums.ActorRoleSystem {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot read another customer's balance"))
				return
			}
			parsed, parseErr := parseUUIDQuery(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, parseErr)
				return
			}
			customerID = parsed
		}

		balance, err := svc.Balance(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"customer_id": customerID,
			"points":      balance,
		})
	}
}
