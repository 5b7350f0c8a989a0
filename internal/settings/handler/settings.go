package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"rentory/internal/auth"
	"rentory/internal/settings/service"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/httpx"
	"rentory/pkg/logger"
)

type SettingsHandler struct {
	service service.SettingsService
	mw      *auth.Middleware
	log     *logger.Logger
}

func NewSettingsHandler(service service.SettingsService, mw *auth.Middleware, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, mw: mw, log: log}
}

func (h *SettingsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/settings/email-recipients", h.mw.Require(h.GetEmailRecipients))
	router.PUT("/api/settings/email-recipients", h.mw.Require(h.UpdateEmailRecipients))
}

func (h *SettingsHandler) GetEmailRecipients(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	recipients, err := h.service.EmailRecipients(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, map[string][]string{"recipients": recipients})
}

func (h *SettingsHandler) UpdateEmailRecipients(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload struct {
		Recipients []string `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	recipients, err := h.service.UpdateEmailRecipients(r.Context(), payload.Recipients)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, map[string][]string{"recipients": recipients})
}
