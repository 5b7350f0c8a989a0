package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	apperrors "rentory/pkg/errors"
	"rentory/pkg/httpx"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type userContextKey string

const userKey userContextKey = "auth_user"

// Middleware guards routes with bearer-token authentication. The
// phone-side scanner endpoints deliberately bypass it; possession of the
// random session identifier is their capability.
type Middleware struct {
	service Service
	log     *logger.Logger
}

func NewMiddleware(service Service, log *logger.Logger) *Middleware {
	return &Middleware{service: service, log: log}
}

func (m *Middleware) Require(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			m.reject(w, "Missing bearer token")
			return
		}

		user, err := m.service.VerifyToken(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			m.reject(w, apperrors.AsAppError(err).Message)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx), ps)
	}
}

func (m *Middleware) reject(w http.ResponseWriter, message string) {
	if err := httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{Error: message}); err != nil {
		m.log.Error("failed to write JSON response", "middleware", "auth", "error", err)
	}
}

// UserFromContext returns the authenticated user, or nil outside guarded
// routes.
func UserFromContext(ctx context.Context) *model.User {
	if user, ok := ctx.Value(userKey).(*model.User); ok {
		return user
	}
	return nil
}
