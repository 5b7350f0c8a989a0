package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"rentory/internal/auth"
	"rentory/internal/bookings/service"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/httpx"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	mw      *auth.Middleware
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, mw *auth.Middleware, log *logger.Logger) *BookingHandler {
	return &BookingHandler{service: service, mw: mw, log: log}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/bookings", h.mw.Require(h.List))
	router.POST("/api/bookings", h.mw.Require(h.Create))
	router.GET("/api/bookings/:id", h.mw.Require(h.GetByID))
	router.PUT("/api/bookings/:id", h.mw.Require(h.Update))
	router.DELETE("/api/bookings/:id", h.mw.Require(h.Delete))

	// Delete-with-notification takes a body, which DELETE clients often
	// cannot send, so it lives on a POST route.
	router.POST("/api/bookings/delete/:id", h.mw.Require(h.DeleteWithOptions))
	router.POST("/api/bookings/send-teams-invite/:id", h.mw.Require(h.SendInvite))
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.BookingCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	detail, err := h.service.Create(r.Context(), &input)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteCreated(w, detail)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.GetAll(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, bookings)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	detail, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, detail)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	detail, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, detail)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id"), service.DeleteOptions{}); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteNoContent(w)
}

func (h *BookingHandler) DeleteWithOptions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var opts service.DeleteOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("id"), opts); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, map[string]string{"message": "Booking deleted"})
}

func (h *BookingHandler) SendInvite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var payload struct {
		Recipients []string `json:"recipients,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	messageID, err := h.service.SendInvite(r.Context(), ps.ByName("id"), payload.Recipients)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, map[string]string{"messageId": messageID})
}
