package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	bookingerrors "rentory/internal/bookings/errors"
	"rentory/internal/bookings/validator"
	customererrors "rentory/internal/customers/errors"
	itemserrors "rentory/internal/items/errors"
	itemrepo "rentory/internal/items/repository"
	"rentory/pkg/config"
	mongodb "rentory/pkg/db/mongo"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/events"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type mockBookingRepository struct {
	bookings map[string]*model.Booking
	deleted  []string
}

func newMockBookingRepository() *mockBookingRepository {
	return &mockBookingRepository{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	m.bookings[booking.ID.Hex()] = booking
	return nil
}

func (m *mockBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, bookingerrors.ErrInvalidID
	}
	booking, ok := m.bookings[id]
	if !ok {
		return nil, bookingerrors.ErrNotFound
	}
	return booking, nil
}

func (m *mockBookingRepository) FindAll(context.Context) ([]*model.Booking, error) {
	out := make([]*model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBookingRepository) Update(_ context.Context, id string, booking *model.Booking) error {
	if _, ok := m.bookings[id]; !ok {
		return bookingerrors.ErrNotFound
	}
	m.bookings[id] = booking
	return nil
}

func (m *mockBookingRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.bookings[id]; !ok {
		return bookingerrors.ErrNotFound
	}
	delete(m.bookings, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockBookingItemRepository struct {
	lines map[string][]*model.BookingItem
}

func newMockBookingItemRepository() *mockBookingItemRepository {
	return &mockBookingItemRepository{lines: make(map[string][]*model.BookingItem)}
}

func (m *mockBookingItemRepository) Create(_ context.Context, item *model.BookingItem) error {
	for _, line := range m.lines[item.BookingID.Hex()] {
		if line.ItemID == item.ItemID {
			return bookingerrors.ErrDuplicateItem
		}
	}
	m.lines[item.BookingID.Hex()] = append(m.lines[item.BookingID.Hex()], item)
	return nil
}

func (m *mockBookingItemRepository) FindByBookingAndItem(_ context.Context, bookingID, itemID primitive.ObjectID) (*model.BookingItem, error) {
	for _, line := range m.lines[bookingID.Hex()] {
		if line.ItemID == itemID {
			return line, nil
		}
	}
	return nil, bookingerrors.ErrItemNotFound
}

func (m *mockBookingItemRepository) IncrementQuantity(_ context.Context, bookingID, itemID primitive.ObjectID, delta int) error {
	for _, line := range m.lines[bookingID.Hex()] {
		if line.ItemID == itemID {
			line.Quantity += delta
			return nil
		}
	}
	return bookingerrors.ErrItemNotFound
}

func (m *mockBookingItemRepository) FindByBooking(_ context.Context, bookingID primitive.ObjectID) ([]*model.BookingItem, error) {
	return m.lines[bookingID.Hex()], nil
}

func (m *mockBookingItemRepository) DeleteByBooking(_ context.Context, bookingID primitive.ObjectID) error {
	delete(m.lines, bookingID.Hex())
	return nil
}

type mockCustomerRepository struct {
	customers map[string]*model.Customer
}

func (m *mockCustomerRepository) Create(_ context.Context, c *model.Customer) error { return nil }
func (m *mockCustomerRepository) FindAll(context.Context, int, int64) ([]*model.Customer, error) {
	return nil, nil
}
func (m *mockCustomerRepository) Update(context.Context, string, *model.Customer) error { return nil }
func (m *mockCustomerRepository) Delete(context.Context, string) error                  { return nil }

func (m *mockCustomerRepository) FindByID(_ context.Context, id string) (*model.Customer, error) {
	customer, ok := m.customers[id]
	if !ok {
		return nil, customererrors.ErrNotFound
	}
	return customer, nil
}

type mockItemRepository struct {
	items map[string]*model.Item
}

func (m *mockItemRepository) Create(context.Context, *model.Item) error { return nil }
func (m *mockItemRepository) FindAll(context.Context, itemrepo.ListFilter) ([]*model.Item, error) {
	return nil, nil
}
func (m *mockItemRepository) Update(context.Context, string, *model.Item) error { return nil }
func (m *mockItemRepository) SetDisplayID(context.Context, primitive.ObjectID, int) error {
	return nil
}
func (m *mockItemRepository) MaxTemplateDisplayID(context.Context) (int, error) { return 0, nil }
func (m *mockItemRepository) Delete(context.Context, string) error              { return nil }

func (m *mockItemRepository) FindByID(_ context.Context, id string) (*model.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, itemserrors.ErrNotFound
	}
	return item, nil
}

// passthroughTxManager runs the function without a Mongo session, which
// is all the unit tests need.
type passthroughTxManager struct{}

func (passthroughTxManager) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return fn(mongodriver.NewSessionContext(ctx, nil))
}

type mockNotifier struct {
	invites       int
	cancellations int
	recipients    []string
	err           error
}

func (m *mockNotifier) SendInvite(_ context.Context, recipients []string, _ *model.BookingDetail) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.invites++
	m.recipients = recipients
	return "<msg-1@test>", nil
}

func (m *mockNotifier) SendCancellation(_ context.Context, recipients []string, _ *model.BookingDetail) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.cancellations++
	m.recipients = recipients
	return "<msg-2@test>", nil
}

type mockRecipients struct {
	recipients []string
}

func (m *mockRecipients) EmailRecipients(context.Context) ([]string, error) {
	return m.recipients, nil
}

type fixture struct {
	service  BookingService
	bookings *mockBookingRepository
	lines    *mockBookingItemRepository
	notifier *mockNotifier
	customer *model.Customer
	item     *model.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
	}

	customer := &model.Customer{ID: primitive.NewObjectID(), Name: "Müller GmbH"}
	item := &model.Item{ID: primitive.NewObjectID(), Name: "Beamer", Quantity: 3}

	bookings := newMockBookingRepository()
	lines := newMockBookingItemRepository()
	notifier := &mockNotifier{}

	svc := NewBookingService(
		bookings,
		lines,
		&mockCustomerRepository{customers: map[string]*model.Customer{customer.ID.Hex(): customer}},
		&mockItemRepository{items: map[string]*model.Item{item.ID.Hex(): item}},
		passthroughTxManager{},
		validator.NewBookingValidator(cfg.Log),
		events.NewNoopPublisher(),
		notifier,
		&mockRecipients{recipients: []string{"team@example.com"}},
		cfg,
	)

	return &fixture{
		service:  svc,
		bookings: bookings,
		lines:    lines,
		notifier: notifier,
		customer: customer,
		item:     item,
	}
}

func (f *fixture) createInput() *model.BookingCreate {
	return &model.BookingCreate{
		CustomerID: f.customer.ID.Hex(),
		StartDate:  time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC),
		Items: []model.BookingItemInput{
			{ItemID: f.item.ID.Hex(), Quantity: 2},
		},
	}
}

func TestCreate_PersistsBookingAndLines(t *testing.T) {
	f := newFixture(t)

	detail, err := f.service.Create(context.Background(), f.createInput())
	require.NoError(t, err)

	require.Equal(t, model.BookingStatusPending, detail.Status)
	require.Equal(t, "Müller GmbH", detail.Customer.Name)
	require.Len(t, detail.Items, 1)
	require.Equal(t, 2, detail.Items[0].Quantity)
	require.Equal(t, "Beamer", detail.Items[0].Item.Name)

	require.Len(t, f.bookings.bookings, 1)
	require.Len(t, f.lines.lines[detail.ID.Hex()], 1)
}

func TestCreate_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	input := f.createInput()
	input.CustomerID = primitive.NewObjectID().Hex()

	_, err := f.service.Create(context.Background(), input)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeNotFound, apperrors.AsAppError(err).Code)
}

func TestCreate_UnknownItem(t *testing.T) {
	f := newFixture(t)
	input := f.createInput()
	input.Items[0].ItemID = primitive.NewObjectID().Hex()

	_, err := f.service.Create(context.Background(), input)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeNotFound, apperrors.AsAppError(err).Code)
	require.Empty(t, f.bookings.bookings)
}

func TestUpdate_ReplacesItemLines(t *testing.T) {
	f := newFixture(t)
	detail, err := f.service.Create(context.Background(), f.createInput())
	require.NoError(t, err)

	updated, err := f.service.Update(context.Background(), detail.ID.Hex(), &model.BookingUpdate{
		Items: []model.BookingItemInput{
			{ItemID: f.item.ID.Hex(), Quantity: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.Equal(t, 5, updated.Items[0].Quantity)
}

func TestDelete_WithCancellationMail(t *testing.T) {
	f := newFixture(t)
	detail, err := f.service.Create(context.Background(), f.createInput())
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), detail.ID.Hex(), DeleteOptions{SendCancellation: true})
	require.NoError(t, err)

	require.Equal(t, 1, f.notifier.cancellations)
	require.Equal(t, []string{"team@example.com"}, f.notifier.recipients)
	require.Empty(t, f.bookings.bookings)
	require.Empty(t, f.lines.lines[detail.ID.Hex()])
}

func TestDelete_CancellationIncludesCustomer(t *testing.T) {
	f := newFixture(t)
	f.customer.Email = "kunde@example.com"
	detail, err := f.service.Create(context.Background(), f.createInput())
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), detail.ID.Hex(), DeleteOptions{
		SendCancellation: true,
		SendToCustomer:   true,
	})
	require.NoError(t, err)

	require.Equal(t, 1, f.notifier.cancellations)
	require.Equal(t, []string{"team@example.com", "kunde@example.com"}, f.notifier.recipients)
}

func TestDelete_WithoutMail(t *testing.T) {
	f := newFixture(t)
	detail, err := f.service.Create(context.Background(), f.createInput())
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), detail.ID.Hex(), DeleteOptions{}))
	require.Zero(t, f.notifier.cancellations)
}

func TestSendInvite_UsesConfiguredRecipients(t *testing.T) {
	f := newFixture(t)
	detail, err := f.service.Create(context.Background(), f.createInput())
	require.NoError(t, err)

	messageID, err := f.service.SendInvite(context.Background(), detail.ID.Hex(), nil)
	require.NoError(t, err)
	require.Equal(t, "<msg-1@test>", messageID)
	require.Equal(t, []string{"team@example.com"}, f.notifier.recipients)
}

func TestSendInvite_ExplicitRecipientsWin(t *testing.T) {
	f := newFixture(t)
	detail, err := f.service.Create(context.Background(), f.createInput())
	require.NoError(t, err)

	_, err = f.service.SendInvite(context.Background(), detail.ID.Hex(), []string{"boss@example.com"})
	require.NoError(t, err)
	require.Equal(t, []string{"boss@example.com"}, f.notifier.recipients)
}
