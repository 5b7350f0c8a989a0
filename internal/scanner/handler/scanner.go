package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"

	"rentory/internal/auth"
	scannererrors "rentory/internal/scanner/errors"
	"rentory/internal/scanner/service"
	"rentory/pkg/config"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/httpx"
	"rentory/pkg/logger"
)

const qrSize = 256

// ScannerHandler exposes the pairing flow. Session creation and the QR
// image require a logged-in desktop user; the scan and poll endpoints
// are open, the session ID itself is the capability.
type ScannerHandler struct {
	service service.ScannerService
	mw      *auth.Middleware
	cfg     *config.Config
	log     *logger.Logger
}

func NewScannerHandler(service service.ScannerService, mw *auth.Middleware, cfg *config.Config, log *logger.Logger) *ScannerHandler {
	return &ScannerHandler{service: service, mw: mw, cfg: cfg, log: log}
}

func (h *ScannerHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/scanner/sessions", h.mw.Require(h.CreateSession))
	router.GET("/api/scanner/sessions/:sessionId/qr", h.mw.Require(h.SessionQR))
	router.POST("/api/scanner/sessions/:sessionId/scan", h.RecordScan)
	router.GET("/api/scanner/sessions/:sessionId/items", h.SessionItems)
}

func (h *ScannerHandler) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload struct {
		BookingID string `json:"bookingId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	sessionID := h.service.CreateSession(payload.BookingID)

	httpx.WriteCreated(w, map[string]string{
		"sessionId":  sessionID,
		"pairingUrl": h.pairingURL(sessionID, payload.BookingID),
	})
}

// SessionQR renders the pairing URL as a PNG for the desktop to
// display. The phone scans it and extracts the session ID from the
// URL's query string.
func (h *ScannerHandler) SessionQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("sessionId")

	if _, err := h.service.SessionItems(sessionID); err != nil {
		httpx.WriteError(w, translateScanError(err))
		return
	}

	png, err := qrcode.Encode(h.pairingURL(sessionID, r.URL.Query().Get("booking")), qrcode.Medium, qrSize)
	if err != nil {
		h.log.Error("QR encoding failed", "session_id", sessionID, "error", err)
		httpx.WriteError(w, apperrors.Internal("Failed to render pairing code", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Warn("Failed to write QR response", "error", err)
	}
}

func (h *ScannerHandler) RecordScan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var payload struct {
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, apperrors.InvalidInput("Invalid JSON payload"))
		return
	}

	result, err := h.service.RecordScan(r.Context(), ps.ByName("sessionId"), payload.ItemID)
	if err != nil {
		httpx.WriteError(w, translateScanError(err))
		return
	}

	httpx.WriteSuccess(w, result)
}

func (h *ScannerHandler) SessionItems(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	items, err := h.service.SessionItems(ps.ByName("sessionId"))
	if err != nil {
		httpx.WriteError(w, translateScanError(err))
		return
	}

	httpx.WriteSuccess(w, items)
}

func (h *ScannerHandler) pairingURL(sessionID, bookingID string) string {
	pairing := h.cfg.PublicURL + "/scanner?session=" + url.QueryEscape(sessionID)
	if bookingID != "" {
		pairing += "&booking=" + url.QueryEscape(bookingID)
	}
	return pairing
}

func translateScanError(err error) error {
	switch {
	case errors.Is(err, scannererrors.ErrSessionNotFound):
		return apperrors.NotFound("Scan session")
	case errors.Is(err, scannererrors.ErrMissingItemID):
		return apperrors.InvalidInput("Item ID is required")
	case errors.Is(err, scannererrors.ErrItemNotFound):
		return apperrors.NotFound("Scanned item")
	case errors.Is(err, scannererrors.ErrBookingNotFound):
		return apperrors.NotFound("Bound booking")
	default:
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Scan processing failure", err)
	}
}
