package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"rentory/internal/auth"
	"rentory/internal/customers/service"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/httpx"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type CustomerHandler struct {
	service service.CustomerService
	mw      *auth.Middleware
	log     *logger.Logger
}

func NewCustomerHandler(service service.CustomerService, mw *auth.Middleware, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{service: service, mw: mw, log: log}
}

func (h *CustomerHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/customers", h.mw.Require(h.List))
	router.POST("/api/customers", h.mw.Require(h.Create))
	router.GET("/api/customers/:id", h.mw.Require(h.GetByID))
	router.PUT("/api/customers/:id", h.mw.Require(h.Update))
	router.DELETE("/api/customers/:id", h.mw.Require(h.Delete))
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var customer model.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	if err := h.service.Create(r.Context(), &customer); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteCreated(w, customer)
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httpx.ExtractLimitOffset(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	customers, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, customers)
}

func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customer, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.CustomerUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	customer, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteNoContent(w)
}
