package auth

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"rentory/pkg/httpx"
	"rentory/pkg/logger"
)

type Handler struct {
	service Service
	mw      *Middleware
	log     *logger.Logger
}

func NewHandler(service Service, mw *Middleware, log *logger.Logger) *Handler {
	return &Handler{service: service, mw: mw, log: log}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var reg Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.writeBadRequest(w, "Register")
		return
	}

	pair, err := h.service.Register(r.Context(), &reg)
	if err != nil {
		if writeErr := httpx.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Register", "error", writeErr)
		}
		return
	}

	if err := httpx.WriteCreated(w, pair); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "error", err)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeBadRequest(w, "Login")
		return
	}

	pair, err := h.service.Login(r.Context(), &creds)
	if err != nil {
		if writeErr := httpx.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Login", "error", writeErr)
		}
		return
	}

	if err := httpx.WriteSuccess(w, pair); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "error", err)
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httpx.WriteSuccess(w, UserFromContext(r.Context())); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "error", err)
	}
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, handler string) {
	if err := httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
		Error: "Invalid request body",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	router.GET("/api/auth/me", h.mw.Require(h.Me))
}
