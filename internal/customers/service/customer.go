package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	customererrors "rentory/internal/customers/errors"
	"rentory/internal/customers/repository"
	"rentory/pkg/config"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/model"
	"rentory/pkg/sanitizer"
)

type CustomerService interface {
	Create(ctx context.Context, customer *model.Customer) error
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, limit int, offset int64) ([]*model.Customer, error)
	Update(ctx context.Context, id string, updates *model.CustomerUpdate) (*model.Customer, error)
	Delete(ctx context.Context, id string) error
}

type customerService struct {
	repo     repository.CustomerRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewCustomerService(repo repository.CustomerRepository, cfg *config.Config) CustomerService {
	return &customerService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *customerService) Create(ctx context.Context, customer *model.Customer) error {
	s.sanitize(customer)

	if err := s.validate.Struct(customer); err != nil {
		s.cfg.Log.Warn("Customer validation failed", "error", err)
		return apperrors.Validation("Customer validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		s.cfg.Log.Error("Failed to create customer", "error", err)
		return apperrors.Internal("Failed to create customer", err)
	}

	s.cfg.Log.Info("Customer created", "id", customer.ID.Hex(), "name", customer.Name)
	return nil
}

func (s *customerService) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Customer ID cannot be empty")
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateCustomerError(err, id)
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, limit int, offset int64) ([]*model.Customer, error) {
	customers, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list customers", "error", err)
		return nil, apperrors.Internal("Failed to retrieve customers", err)
	}
	if customers == nil {
		customers = []*model.Customer{}
	}
	return customers, nil
}

func (s *customerService) Update(ctx context.Context, id string, updates *model.CustomerUpdate) (*model.Customer, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateCustomerError(err, id)
	}

	if err := s.validate.Struct(updates); err != nil {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.merge(existing, updates)
	s.sanitize(merged)

	if err := s.validate.Struct(merged); err != nil {
		return nil, apperrors.Validation("Customer validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, translateCustomerError(err, id)
	}

	s.cfg.Log.Info("Customer updated", "id", id)
	return merged, nil
}

func (s *customerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Customer ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return translateCustomerError(err, id)
	}

	s.cfg.Log.Info("Customer deleted", "id", id)
	return nil
}

func (s *customerService) sanitize(customer *model.Customer) {
	customer.Name = sanitizer.NormalizeName(customer.Name)
	customer.Email = sanitizer.NormalizeEmail(customer.Email)
	customer.Phone = sanitizer.TrimAndNormalize(customer.Phone)
	customer.Address = sanitizer.TrimAndNormalize(customer.Address)
}

func (s *customerService) merge(existing *model.Customer, updates *model.CustomerUpdate) *model.Customer {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Email != nil {
		merged.Email = *updates.Email
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.Address != nil {
		merged.Address = *updates.Address
	}

	return &merged
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
