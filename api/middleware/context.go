package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/freshfoldhq/freshfold-backend/api/responses"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

// Actor trusts the identity headers set by the upstream gateway and makes
// the resolved actor available to handlers. Requests without a parseable
// identity are rejected before they reach any handler.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, err := uuid.Parse(r.Header.Get(actorIDHeader))
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "missing or malformed actor id"))
				return
			}
			role := enums.ActorRole(r.Header.Get(actorRoleHeader))
			if !role.IsValid() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "missing or unknown actor role"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, actorID.String())
			ctx = context.WithValue(ctx, ctxRole, string(role))
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"actor_id":   actorID.String(),
					"actor_role": string(role),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext reassembles the actor injected by the Actor middleware.
func ActorFromContext(ctx context.Context) (types.Actor, error) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "no actor on request")
	}
	role := enums.ActorRole(RoleFromContext(ctx))
	if !role.IsValid() {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "no actor role on request")
	}
	return types.Actor{ID: id, Role: role}, nil
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}
