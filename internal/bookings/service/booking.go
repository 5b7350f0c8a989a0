package service

import (
	"context"
	"errors"
	"time"

	mongodriver "go.mongodb.org/mongo-driver/mongo"

	bookingerrors "rentory/internal/bookings/errors"
	"rentory/internal/bookings/repository"
	"rentory/internal/bookings/validator"
	customererrors "rentory/internal/customers/errors"
	customerrepo "rentory/internal/customers/repository"
	itemserrors "rentory/internal/items/errors"
	itemrepo "rentory/internal/items/repository"
	"rentory/pkg/config"
	mongodb "rentory/pkg/db/mongo"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/events"
	"rentory/pkg/model"
	"rentory/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier delivers calendar mail for a booking. Implemented by the
// mail package; the returned string is the provider message ID.
type Notifier interface {
	SendInvite(ctx context.Context, recipients []string, detail *model.BookingDetail) (string, error)
	SendCancellation(ctx context.Context, recipients []string, detail *model.BookingDetail) (string, error)
}

// RecipientSource yields the configured notification recipients.
// Satisfied by the settings service.
type RecipientSource interface {
	EmailRecipients(ctx context.Context) ([]string, error)
}

// DeleteOptions mirror the delete payload flags. SendCancellation
// controls whether a calendar cancellation goes out before removal;
// SendToCustomer additionally mails the booking's customer.
type DeleteOptions struct {
	SendCancellation bool     `json:"sendCancellationEmail"`
	SendToCustomer   bool     `json:"sendToCustomer"`
	Recipients       []string `json:"recipients,omitempty"`
}

type BookingService interface {
	Create(ctx context.Context, input *model.BookingCreate) (*model.BookingDetail, error)
	GetByID(ctx context.Context, id string) (*model.BookingDetail, error)
	GetAll(ctx context.Context) ([]*model.BookingDetail, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.BookingDetail, error)
	Delete(ctx context.Context, id string, opts DeleteOptions) error
	SendInvite(ctx context.Context, id string, recipients []string) (string, error)
}

type bookingService struct {
	bookings   repository.BookingRepository
	lines      repository.BookingItemRepository
	customers  customerrepo.CustomerRepository
	items      itemrepo.ItemRepository
	txManager  mongodb.TransactionManager
	validator  *validator.BookingValidator
	publisher  events.Publisher
	notifier   Notifier
	recipients RecipientSource
	cfg        *config.Config
}

func NewBookingService(
	bookings repository.BookingRepository,
	lines repository.BookingItemRepository,
	customers customerrepo.CustomerRepository,
	items itemrepo.ItemRepository,
	txManager mongodb.TransactionManager,
	v *validator.BookingValidator,
	publisher events.Publisher,
	notifier Notifier,
	recipients RecipientSource,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		bookings:   bookings,
		lines:      lines,
		customers:  customers,
		items:      items,
		txManager:  txManager,
		validator:  v,
		publisher:  publisher,
		notifier:   notifier,
		recipients: recipients,
		cfg:        cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, input *model.BookingCreate) (*model.BookingDetail, error) {
	if err := s.validator.ValidateCreate(input); err != nil {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, translateCustomerError(err, input.CustomerID)
	}

	itemsByID, err := s.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.BookingStatusPending
	}

	booking := &model.Booking{
		CustomerID: customer.ID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Status:     status,
		Notes:      sanitizer.TrimAndNormalize(input.Notes),
	}

	err = s.txManager.ExecuteTransaction(ctx, func(sessCtx mongodriver.SessionContext) error {
		if err := s.bookings.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		for _, line := range input.Items {
			itemID, _ := primitive.ObjectIDFromHex(line.ItemID)
			bi := &model.BookingItem{
				BookingID: booking.ID,
				ItemID:    itemID,
				Quantity:  line.Quantity,
			}
			if err := s.lines.Create(sessCtx, bi); err != nil {
				return apperrors.Internal("Failed to create booking item", err)
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Booking creation failed", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created", "id", booking.ID.Hex(), "customer_id", customer.ID.Hex())
	s.publish(ctx, events.TypeBookingCreated, booking.ID.Hex())

	return s.assembleDetail(ctx, booking, customer, itemsByID)
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingDetail, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, translateBookingError(err, id)
	}
	return s.populate(ctx, booking)
}

func (s *bookingService) GetAll(ctx context.Context) ([]*model.BookingDetail, error) {
	bookings, err := s.bookings.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	details := make([]*model.BookingDetail, 0, len(bookings))
	for _, booking := range bookings {
		detail, err := s.populate(ctx, booking)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.BookingDetail, error) {
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, translateBookingError(err, id)
	}

	merged := *existing
	if updates.CustomerID != nil {
		customer, err := s.customers.FindByID(ctx, *updates.CustomerID)
		if err != nil {
			return nil, translateCustomerError(err, *updates.CustomerID)
		}
		merged.CustomerID = customer.ID
	}
	if updates.StartDate != nil {
		merged.StartDate = *updates.StartDate
	}
	if updates.EndDate != nil {
		merged.EndDate = *updates.EndDate
	}
	if !merged.EndDate.After(merged.StartDate) {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": "end_date must be after start_date",
		})
	}
	if updates.Status != nil {
		merged.Status = *updates.Status
	}
	if updates.Notes != nil {
		merged.Notes = sanitizer.TrimAndNormalize(*updates.Notes)
	}

	if updates.Items != nil {
		if _, err := s.resolveItems(ctx, updates.Items); err != nil {
			return nil, err
		}
	}

	err = s.txManager.ExecuteTransaction(ctx, func(sessCtx mongodriver.SessionContext) error {
		if err := s.bookings.Update(sessCtx, id, &merged); err != nil {
			return translateBookingError(err, id)
		}
		if updates.Items == nil {
			return nil
		}
		// Item lines are replaced wholesale when the payload carries them.
		if err := s.lines.DeleteByBooking(sessCtx, merged.ID); err != nil {
			return apperrors.Internal("Failed to replace booking items", err)
		}
		for _, line := range updates.Items {
			itemID, _ := primitive.ObjectIDFromHex(line.ItemID)
			bi := &model.BookingItem{
				BookingID: merged.ID,
				ItemID:    itemID,
				Quantity:  line.Quantity,
			}
			if err := s.lines.Create(sessCtx, bi); err != nil {
				return apperrors.Internal("Failed to replace booking items", err)
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Booking update failed", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated", "id", id)
	s.publish(ctx, events.TypeBookingUpdated, id)

	return s.populate(ctx, &merged)
}

func (s *bookingService) Delete(ctx context.Context, id string, opts DeleteOptions) error {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return translateBookingError(err, id)
	}

	if opts.SendCancellation {
		detail, err := s.populate(ctx, booking)
		if err != nil {
			return err
		}
		recipients := opts.Recipients
		if len(recipients) == 0 {
			recipients, err = s.recipients.EmailRecipients(ctx)
			if err != nil {
				return err
			}
		}
		if opts.SendToCustomer && detail.Customer != nil && detail.Customer.Email != "" {
			recipients = appendRecipient(recipients, detail.Customer.Email)
		}
		if len(recipients) > 0 {
			if _, err := s.notifier.SendCancellation(ctx, recipients, detail); err != nil {
				s.cfg.Log.Error("Cancellation mail failed", "id", id, "error", err)
				return apperrors.Unavailable("Email delivery")
			}
			s.cfg.Log.Info("Cancellation mail sent", "id", id, "recipients", len(recipients))
		}
	}

	err = s.txManager.ExecuteTransaction(ctx, func(sessCtx mongodriver.SessionContext) error {
		if err := s.lines.DeleteByBooking(sessCtx, booking.ID); err != nil {
			return apperrors.Internal("Failed to delete booking items", err)
		}
		if err := s.bookings.Delete(sessCtx, id); err != nil {
			return translateBookingError(err, id)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Booking deletion failed", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking deleted", "id", id)
	s.publish(ctx, events.TypeBookingDeleted, id)
	return nil
}

func (s *bookingService) SendInvite(ctx context.Context, id string, recipients []string) (string, error) {
	detail, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if len(recipients) == 0 {
		recipients, err = s.recipients.EmailRecipients(ctx)
		if err != nil {
			return "", err
		}
	}
	if len(recipients) == 0 {
		return "", apperrors.InvalidInput("No invite recipients configured")
	}

	messageID, err := s.notifier.SendInvite(ctx, recipients, detail)
	if err != nil {
		s.cfg.Log.Error("Invite mail failed", "id", id, "error", err)
		return "", apperrors.Unavailable("Email delivery")
	}

	s.cfg.Log.Info("Invite mail sent", "id", id, "recipients", len(recipients), "message_id", messageID)
	return messageID, nil
}

func appendRecipient(recipients []string, email string) []string {
	for _, existing := range recipients {
		if existing == email {
			return recipients
		}
	}
	return append(recipients, email)
}

// resolveItems verifies every referenced item exists and returns them
// keyed by hex ID.
func (s *bookingService) resolveItems(ctx context.Context, lines []model.BookingItemInput) (map[string]*model.Item, error) {
	resolved := make(map[string]*model.Item, len(lines))
	for _, line := range lines {
		item, err := s.items.FindByID(ctx, line.ItemID)
		if err != nil {
			return nil, translateItemError(err, line.ItemID)
		}
		resolved[line.ItemID] = item
	}
	return resolved, nil
}

func (s *bookingService) populate(ctx context.Context, booking *model.Booking) (*model.BookingDetail, error) {
	customer, err := s.customers.FindByID(ctx, booking.CustomerID.Hex())
	if err != nil && !errors.Is(err, customererrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to load booking customer", err)
	}

	return s.assembleDetail(ctx, booking, customer, nil)
}

func (s *bookingService) assembleDetail(ctx context.Context, booking *model.Booking, customer *model.Customer, itemsByID map[string]*model.Item) (*model.BookingDetail, error) {
	lines, err := s.lines.FindByBooking(ctx, booking.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load booking items", err)
	}

	details := make([]model.BookingItemDetail, 0, len(lines))
	for _, line := range lines {
		detail := model.BookingItemDetail{BookingItem: *line}
		hexID := line.ItemID.Hex()
		if item, ok := itemsByID[hexID]; ok {
			detail.Item = item
		} else if item, err := s.items.FindByID(ctx, hexID); err == nil {
			detail.Item = item
		} else if !errors.Is(err, itemserrors.ErrNotFound) {
			return nil, apperrors.Internal("Failed to load booking item", err)
		}
		details = append(details, detail)
	}

	return &model.BookingDetail{
		Booking:  *booking,
		Customer: customer,
		Items:    details,
	}, nil
}

func (s *bookingService) publish(ctx context.Context, eventType, bookingID string) {
	if s.publisher == nil {
		return
	}
	event := events.Event{
		Type:       eventType,
		Key:        bookingID,
		Payload:    map[string]string{"bookingId": bookingID},
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Event publish failed", "type", eventType, "error", err)
	}
}

func translateBookingError(err error, id string) error {
	switch {
	case errors.Is(err, bookingerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Booking storage failure", err)
	}
}

func translateCustomerError(err error, id string) error {
	switch {
	case errors.Is(err, customererrors.ErrNotFound):
		return apperrors.NotFoundWithID("Customer", id)
	case errors.Is(err, customererrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid customer ID format")
	default:
		return apperrors.Internal("Customer storage failure", err)
	}
}

func translateItemError(err error, id string) error {
	switch {
	case errors.Is(err, itemserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Item", id)
	case errors.Is(err, itemserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid item ID format")
	default:
		return apperrors.Internal("Item storage failure", err)
	}
}
