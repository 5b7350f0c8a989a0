package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"rentory/internal/auth"
	"rentory/internal/items/repository"
	"rentory/internal/items/service"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/httpx"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type ItemHandler struct {
	service service.ItemService
	mw      *auth.Middleware
	log     *logger.Logger
}

func NewItemHandler(service service.ItemService, mw *auth.Middleware, log *logger.Logger) *ItemHandler {
	return &ItemHandler{service: service, mw: mw, log: log}
}

func (h *ItemHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/items", h.mw.Require(h.List))
	router.POST("/api/items", h.mw.Require(h.Create))
	router.GET("/api/items/:id", h.mw.Require(h.GetByID))
	router.PUT("/api/items/:id", h.mw.Require(h.Update))
	router.DELETE("/api/items/:id", h.mw.Require(h.Delete))
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var item model.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	if err := h.service.Create(r.Context(), &item); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteCreated(w, item)
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := repository.ListFilter{
		ExcludeDummy: r.URL.Query().Get("excludeDummy") == "true",
		DummyOnly:    r.URL.Query().Get("dummyOnly") == "true",
	}

	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, items)
}

func (h *ItemHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	item, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	item, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteSuccess(w, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteNoContent(w)
}
