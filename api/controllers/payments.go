package controllers

import (
	"net/http"

	"github.com/freshfoldhq/freshfold-backend/api/middleware"
	"github.com/freshfoldhq/freshfold-backend/api/responses"
	"github.com/freshfoldhq/freshfold-backend/api/validators"
	"github.com/freshfoldhq/freshfold-backend/internal/payments"
	"github.com/freshfoldhq/freshfold-backend/internal/reconciliation"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
)

// GetPayment returns a payment the actor is allowed to see.
func GetPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paymentID, err := parseUUIDParam(r, "paymentID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payment, err := svc.Get(ctx, paymentID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

type setPaymentStatusRequest struct {
	Target string  `json:"target" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

// SetPaymentStatus applies a manual status change: cash settlement, admin
// correction, customer cancellation.
func SetPaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paymentID, err := parseUUIDParam(r, "paymentID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req setPaymentStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		target := enums.PaymentStatus(req.Target)
		if !target.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status"))
			return
		}

		payment, err := svc.SetStatus(ctx, payments.SetStatusInput{
			PaymentID: paymentID,
			Target:    target,
			Actor:     actor,
			Notes:     req.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

type refundPaymentRequest struct {
	Amount string `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// RefundPayment annotates a refund against a payment.
func RefundPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paymentID, err := parseUUIDParam(r, "paymentID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req refundPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		amount, err := parseMoney(req.Amount, "amount")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payment, err := svc.Refund(ctx, payments.RefundInput{
			PaymentID: paymentID,
			Amount:    amount,
			Reason:    validators.SanitizeString(req.Reason, 500),
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

type initializePaymentRequest struct {
	Gateway     string `json:"gateway" validate:"required"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// InitializePayment starts a gateway charge for the order's live payment.
func InitializePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req initializePaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		provider := enums.GatewayProvider(req.Gateway)
		if !provider.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown gateway provider"))
			return
		}

		result, err := svc.Initialize(ctx, payments.InitializeInput{
			OrderID:     orderID,
			Gateway:     provider,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			CallbackURL: req.CallbackURL,
			Actor:       actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type verifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// VerifyPayment pulls the authoritative gateway state for a reference, for
// when a webhook was missed or a client wants certainty.
func VerifyPayment(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payment, err := svc.VerifyPayment(ctx, req.Reference, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}
