package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	bookingerrors "rentory/internal/bookings/errors"
	itemserrors "rentory/internal/items/errors"
	scannererrors "rentory/internal/scanner/errors"
	"rentory/internal/scanner/store"
	"rentory/pkg/config"
	"rentory/pkg/events"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type mockItemFinder struct {
	findFunc func(ctx context.Context, id string) (*model.Item, error)
}

func (m *mockItemFinder) FindByID(ctx context.Context, id string) (*model.Item, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, id)
	}
	return nil, itemserrors.ErrNotFound
}

type mockBookingFinder struct {
	findFunc func(ctx context.Context, id string) (*model.Booking, error)
}

func (m *mockBookingFinder) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, id)
	}
	return nil, bookingerrors.ErrNotFound
}

// fakeBookingItemStore behaves like the Mongo collection with its
// unique (booking_id, item_id) index: a racing create fails with
// ErrDuplicateItem and increments are atomic.
type fakeBookingItemStore struct {
	mu    sync.Mutex
	lines map[string]*model.BookingItem
	calls int
}

func newFakeBookingItemStore() *fakeBookingItemStore {
	return &fakeBookingItemStore{lines: make(map[string]*model.BookingItem)}
}

func lineKey(bookingID, itemID primitive.ObjectID) string {
	return bookingID.Hex() + "/" + itemID.Hex()
}

func (f *fakeBookingItemStore) Create(_ context.Context, item *model.BookingItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := lineKey(item.BookingID, item.ItemID)
	if _, exists := f.lines[key]; exists {
		return bookingerrors.ErrDuplicateItem
	}
	copied := *item
	f.lines[key] = &copied
	return nil
}

func (f *fakeBookingItemStore) FindByBookingAndItem(_ context.Context, bookingID, itemID primitive.ObjectID) (*model.BookingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	line, ok := f.lines[lineKey(bookingID, itemID)]
	if !ok {
		return nil, bookingerrors.ErrItemNotFound
	}
	copied := *line
	return &copied, nil
}

func (f *fakeBookingItemStore) IncrementQuantity(_ context.Context, bookingID, itemID primitive.ObjectID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	line, ok := f.lines[lineKey(bookingID, itemID)]
	if !ok {
		return bookingerrors.ErrItemNotFound
	}
	line.Quantity += delta
	return nil
}

func (f *fakeBookingItemStore) quantity(bookingID, itemID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	line, ok := f.lines[lineKey(bookingID, itemID)]
	if !ok {
		return 0
	}
	return line.Quantity
}

func (f *fakeBookingItemStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
		ScanSessionTTL: time.Hour,
	}
}

func newTestService(items ItemFinder, bookings BookingFinder, lines BookingItemStore) (ScannerService, *store.Store) {
	sessions := store.NewStore(time.Hour)
	svc := NewScannerService(sessions, items, bookings, lines, events.NewNoopPublisher(), testConfig())
	return svc, sessions
}

func knownItem(id primitive.ObjectID, name string) *mockItemFinder {
	return &mockItemFinder{
		findFunc: func(_ context.Context, got string) (*model.Item, error) {
			if got == id.Hex() {
				return &model.Item{ID: id, Name: name}, nil
			}
			return nil, itemserrors.ErrNotFound
		},
	}
}

func knownBooking(booking *model.Booking) *mockBookingFinder {
	return &mockBookingFinder{
		findFunc: func(_ context.Context, got string) (*model.Booking, error) {
			if got == booking.ID.Hex() {
				return booking, nil
			}
			return nil, bookingerrors.ErrNotFound
		},
	}
}

func TestCreateSession_DistinctIDs(t *testing.T) {
	svc, sessions := newTestService(&mockItemFinder{}, &mockBookingFinder{}, newFakeBookingItemStore())

	a := svc.CreateSession("")
	b := svc.CreateSession("")

	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	require.NotEqual(t, a, b)
	require.Equal(t, 2, sessions.Len())
}

func TestRecordScan_Accumulates(t *testing.T) {
	itemID := primitive.NewObjectID()
	svc, _ := newTestService(knownItem(itemID, "Kabeltrommel"), &mockBookingFinder{}, newFakeBookingItemStore())

	sessionID := svc.CreateSession("")
	for i := 0; i < 3; i++ {
		result, err := svc.RecordScan(context.Background(), sessionID, itemID.Hex())
		require.NoError(t, err)
		require.Equal(t, "Kabeltrommel", result.ItemName)
		require.Equal(t, "Kabeltrommel erfasst.", result.Message)
	}

	items, err := svc.SessionItems(sessionID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, itemID.Hex(), items[0].ItemID)
	require.Equal(t, 3, items[0].Quantity)
}

func TestRecordScan_SessionIsolation(t *testing.T) {
	itemID := primitive.NewObjectID()
	svc, _ := newTestService(knownItem(itemID, "Stativ"), &mockBookingFinder{}, newFakeBookingItemStore())

	a := svc.CreateSession("")
	b := svc.CreateSession("")

	_, err := svc.RecordScan(context.Background(), a, itemID.Hex())
	require.NoError(t, err)

	itemsB, err := svc.SessionItems(b)
	require.NoError(t, err)
	require.Empty(t, itemsB)
}

func TestRecordScan_SessionNotFound(t *testing.T) {
	svc, _ := newTestService(&mockItemFinder{}, &mockBookingFinder{}, newFakeBookingItemStore())

	_, err := svc.RecordScan(context.Background(), "unknown", primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, scannererrors.ErrSessionNotFound)
}

func TestRecordScan_MissingItemID(t *testing.T) {
	svc, _ := newTestService(&mockItemFinder{}, &mockBookingFinder{}, newFakeBookingItemStore())

	sessionID := svc.CreateSession("")
	_, err := svc.RecordScan(context.Background(), sessionID, "   ")
	require.ErrorIs(t, err, scannererrors.ErrMissingItemID)
}

func TestRecordScan_UnknownItemLeavesNoTrace(t *testing.T) {
	bookingID := primitive.NewObjectID()
	lines := newFakeBookingItemStore()
	svc, _ := newTestService(&mockItemFinder{}, knownBooking(&model.Booking{ID: bookingID}), lines)

	sessionID := svc.CreateSession(bookingID.Hex())
	_, err := svc.RecordScan(context.Background(), sessionID, primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, scannererrors.ErrItemNotFound)

	items, err := svc.SessionItems(sessionID)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, 0, lines.callCount())
}

func TestRecordScan_BookingMirroring(t *testing.T) {
	itemID := primitive.NewObjectID()
	bookingID := primitive.NewObjectID()
	lines := newFakeBookingItemStore()
	svc, _ := newTestService(knownItem(itemID, "Beamer"), knownBooking(&model.Booking{ID: bookingID}), lines)

	sessionID := svc.CreateSession(bookingID.Hex())
	for i := 0; i < 2; i++ {
		_, err := svc.RecordScan(context.Background(), sessionID, itemID.Hex())
		require.NoError(t, err)
	}

	items, err := svc.SessionItems(sessionID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity)
	require.Equal(t, 2, lines.quantity(bookingID, itemID))
}

func TestRecordScan_UnboundSessionSkipsPersistence(t *testing.T) {
	itemID := primitive.NewObjectID()
	lines := newFakeBookingItemStore()
	svc, _ := newTestService(knownItem(itemID, "Leinwand"), &mockBookingFinder{}, lines)

	sessionID := svc.CreateSession("")
	_, err := svc.RecordScan(context.Background(), sessionID, itemID.Hex())
	require.NoError(t, err)

	require.Equal(t, 0, lines.callCount())
}

func TestRecordScan_BookingDeletedAfterPairing(t *testing.T) {
	itemID := primitive.NewObjectID()
	lines := newFakeBookingItemStore()
	svc, _ := newTestService(knownItem(itemID, "Mischpult"), &mockBookingFinder{}, lines)

	sessionID := svc.CreateSession(primitive.NewObjectID().Hex())
	_, err := svc.RecordScan(context.Background(), sessionID, itemID.Hex())
	require.ErrorIs(t, err, scannererrors.ErrBookingNotFound)

	// The failed scan must not have touched the session either.
	items, err := svc.SessionItems(sessionID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestRecordScan_ConcurrentSameItem(t *testing.T) {
	itemID := primitive.NewObjectID()
	bookingID := primitive.NewObjectID()
	lines := newFakeBookingItemStore()
	svc, _ := newTestService(knownItem(itemID, "Funkstrecke"), knownBooking(&model.Booking{ID: bookingID}), lines)

	sessionID := svc.CreateSession(bookingID.Hex())

	const n = 50
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.RecordScan(context.Background(), sessionID, itemID.Hex())
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	items, err := svc.SessionItems(sessionID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, n, items[0].Quantity)
	require.Equal(t, n, lines.quantity(bookingID, itemID))
}

func TestSessionItems_UnknownSession(t *testing.T) {
	svc, _ := newTestService(&mockItemFinder{}, &mockBookingFinder{}, newFakeBookingItemStore())

	_, err := svc.SessionItems("unknown")
	require.ErrorIs(t, err, scannererrors.ErrSessionNotFound)
}
