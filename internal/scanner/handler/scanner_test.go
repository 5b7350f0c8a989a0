package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"

	scannererrors "rentory/internal/scanner/errors"
	"rentory/internal/scanner/service"
	"rentory/pkg/config"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type mockScannerService struct {
	createFunc func(bookingID string) string
	scanFunc   func(ctx context.Context, sessionID, itemID string) (*service.ScanResult, error)
	itemsFunc  func(sessionID string) ([]model.ScannedItem, error)
}

func (m *mockScannerService) CreateSession(bookingID string) string {
	if m.createFunc != nil {
		return m.createFunc(bookingID)
	}
	return "session-1"
}

func (m *mockScannerService) RecordScan(ctx context.Context, sessionID, itemID string) (*service.ScanResult, error) {
	if m.scanFunc != nil {
		return m.scanFunc(ctx, sessionID, itemID)
	}
	return nil, scannererrors.ErrSessionNotFound
}

func (m *mockScannerService) SessionItems(sessionID string) ([]model.ScannedItem, error) {
	if m.itemsFunc != nil {
		return m.itemsFunc(sessionID)
	}
	return nil, scannererrors.ErrSessionNotFound
}

func newTestHandler(svc service.ScannerService) *ScannerHandler {
	cfg := &config.Config{
		PublicURL: "http://localhost:3000",
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
	}
	return NewScannerHandler(svc, nil, cfg, cfg.Log)
}

func TestRecordScan_Success(t *testing.T) {
	h := newTestHandler(&mockScannerService{
		scanFunc: func(_ context.Context, sessionID, itemID string) (*service.ScanResult, error) {
			require.Equal(t, "s1", sessionID)
			require.Equal(t, "i1", itemID)
			return &service.ScanResult{ItemName: "Kabel", Quantity: 2, Message: "Kabel erfasst."}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/scanner/sessions/s1/scan", strings.NewReader(`{"itemId":"i1"}`))
	rec := httptest.NewRecorder()
	h.RecordScan(rec, req, httprouter.Params{{Key: "sessionId", Value: "s1"}})

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data service.ScanResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Kabel", body.Data.ItemName)
	require.Equal(t, 2, body.Data.Quantity)
	require.Equal(t, "Kabel erfasst.", body.Data.Message)
}

func TestRecordScan_ExpiredSession(t *testing.T) {
	h := newTestHandler(&mockScannerService{})

	req := httptest.NewRequest(http.MethodPost, "/api/scanner/sessions/gone/scan", strings.NewReader(`{"itemId":"i1"}`))
	rec := httptest.NewRecorder()
	h.RecordScan(rec, req, httprouter.Params{{Key: "sessionId", Value: "gone"}})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordScan_MissingItemID(t *testing.T) {
	h := newTestHandler(&mockScannerService{
		scanFunc: func(_ context.Context, _, _ string) (*service.ScanResult, error) {
			return nil, scannererrors.ErrMissingItemID
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/scanner/sessions/s1/scan", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.RecordScan(rec, req, httprouter.Params{{Key: "sessionId", Value: "s1"}})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionItems_ReturnsSnapshot(t *testing.T) {
	h := newTestHandler(&mockScannerService{
		itemsFunc: func(sessionID string) ([]model.ScannedItem, error) {
			return []model.ScannedItem{
				{ItemID: "i1", Quantity: 3, ItemName: "Kabel"},
				{ItemID: "i2", Quantity: 1, ItemName: "Stativ"},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/scanner/sessions/s1/items", nil)
	rec := httptest.NewRecorder()
	h.SessionItems(rec, req, httprouter.Params{{Key: "sessionId", Value: "s1"}})

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []model.ScannedItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, 3, body.Data[0].Quantity)
}

func TestCreateSession_ReturnsPairingURL(t *testing.T) {
	h := newTestHandler(&mockScannerService{
		createFunc: func(bookingID string) string {
			require.Equal(t, "b1", bookingID)
			return "session-xyz"
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/scanner/sessions", strings.NewReader(`{"bookingId":"b1"}`))
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req, nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "session-xyz", body.Data["sessionId"])
	require.Equal(t, "http://localhost:3000/scanner?session=session-xyz&booking=b1", body.Data["pairingUrl"])
}

func TestCreateSession_EmptyBody(t *testing.T) {
	h := newTestHandler(&mockScannerService{
		createFunc: func(bookingID string) string {
			require.Empty(t, bookingID)
			return "session-abc"
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/scanner/sessions", nil)
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestSessionQR_ReturnsPNG(t *testing.T) {
	h := newTestHandler(&mockScannerService{
		itemsFunc: func(sessionID string) ([]model.ScannedItem, error) {
			return []model.ScannedItem{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/scanner/sessions/s1/qr", nil)
	rec := httptest.NewRecorder()
	h.SessionQR(rec, req, httprouter.Params{{Key: "sessionId", Value: "s1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Body.Bytes())
	// PNG magic bytes
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
}

func TestSessionQR_ExpiredSession(t *testing.T) {
	h := newTestHandler(&mockScannerService{})

	req := httptest.NewRequest(http.MethodGet, "/api/scanner/sessions/gone/qr", nil)
	rec := httptest.NewRecorder()
	h.SessionQR(rec, req, httprouter.Params{{Key: "sessionId", Value: "gone"}})

	require.Equal(t, http.StatusNotFound, rec.Code)
}
