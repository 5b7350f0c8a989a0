package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	bookingerrors "rentory/internal/bookings/errors"
	itemserrors "rentory/internal/items/errors"
	scannererrors "rentory/internal/scanner/errors"
	"rentory/internal/scanner/store"
	"rentory/pkg/config"
	"rentory/pkg/events"
	"rentory/pkg/model"
)

// ItemFinder resolves a scanned item code to an item document.
type ItemFinder interface {
	FindByID(ctx context.Context, id string) (*model.Item, error)
}

// BookingFinder checks that a bound booking still exists at scan time.
type BookingFinder interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
}

// BookingItemStore mirrors accepted scans into the persistent item
// lines of a bound booking.
type BookingItemStore interface {
	Create(ctx context.Context, item *model.BookingItem) error
	FindByBookingAndItem(ctx context.Context, bookingID, itemID primitive.ObjectID) (*model.BookingItem, error)
	IncrementQuantity(ctx context.Context, bookingID, itemID primitive.ObjectID, delta int) error
}

type ScanResult struct {
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message"`
}

type ScannerService interface {
	CreateSession(bookingID string) string
	RecordScan(ctx context.Context, sessionID, itemID string) (*ScanResult, error)
	SessionItems(sessionID string) ([]model.ScannedItem, error)
}

type scannerService struct {
	sessions  *store.Store
	items     ItemFinder
	bookings  BookingFinder
	lines     BookingItemStore
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewScannerService(
	sessions *store.Store,
	items ItemFinder,
	bookings BookingFinder,
	lines BookingItemStore,
	publisher events.Publisher,
	cfg *config.Config,
) ScannerService {
	return &scannerService{
		sessions:  sessions,
		items:     items,
		bookings:  bookings,
		lines:     lines,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateSession always succeeds and always returns a fresh identifier.
// The bound booking, if any, is not validated here; a stale binding
// surfaces as BookingNotFound on the first scan.
func (s *scannerService) CreateSession(bookingID string) string {
	session := &store.Session{
		ID:        uuid.NewString(),
		BookingID: strings.TrimSpace(bookingID),
		CreatedAt: s.now().UTC(),
	}
	s.sessions.Put(session)

	s.cfg.Log.Info("Scan session created", "session_id", session.ID, "booking_id", session.BookingID)
	return session.ID
}

func (s *scannerService) RecordScan(ctx context.Context, sessionID, itemID string) (*ScanResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, scannererrors.ErrSessionNotFound
	}

	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, scannererrors.ErrMissingItemID
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, itemserrors.ErrNotFound) || errors.Is(err, itemserrors.ErrInvalidID) {
			return nil, scannererrors.ErrItemNotFound
		}
		return nil, err
	}

	// Persist first: a storage failure must leave the in-memory list
	// untouched so the client can simply re-scan.
	if session.BookingID != "" {
		if err := s.mirrorScan(ctx, session.BookingID, item); err != nil {
			return nil, err
		}
	}

	quantity := session.Add(item.ID.Hex(), item.Name)

	s.publishScan(ctx, session, item, quantity)

	return &ScanResult{
		ItemName: item.Name,
		Quantity: quantity,
		Message:  item.Name + " erfasst.",
	}, nil
}

func (s *scannerService) SessionItems(sessionID string) ([]model.ScannedItem, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, scannererrors.ErrSessionNotFound
	}
	return session.Items(), nil
}

// mirrorScan upserts the (booking, item) line and bumps its quantity by
// one. The create path can lose a race against a concurrent scan of
// the same pair; the unique index turns that into ErrDuplicateItem and
// the retry increments the row the winner created.
func (s *scannerService) mirrorScan(ctx context.Context, bookingID string, item *model.Item) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) || errors.Is(err, bookingerrors.ErrInvalidID) {
			return scannererrors.ErrBookingNotFound
		}
		return err
	}

	err = s.lines.IncrementQuantity(ctx, booking.ID, item.ID, 1)
	if err == nil {
		return nil
	}
	if !errors.Is(err, bookingerrors.ErrItemNotFound) {
		return err
	}

	line := &model.BookingItem{
		BookingID: booking.ID,
		ItemID:    item.ID,
		Quantity:  1,
	}
	err = s.lines.Create(ctx, line)
	if errors.Is(err, bookingerrors.ErrDuplicateItem) {
		return s.lines.IncrementQuantity(ctx, booking.ID, item.ID, 1)
	}
	return err
}

func (s *scannerService) publishScan(ctx context.Context, session *store.Session, item *model.Item, quantity int) {
	if s.publisher == nil {
		return
	}
	event := events.Event{
		Type: events.TypeScanRecorded,
		Key:  session.ID,
		Payload: map[string]any{
			"sessionId": session.ID,
			"bookingId": session.BookingID,
			"itemId":    item.ID.Hex(),
			"itemName":  item.Name,
			"quantity":  quantity,
		},
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Scan event publish failed", "session_id", session.ID, "error", err)
	}
}
