package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	itemserrors "rentory/internal/items/errors"
	"rentory/internal/items/repository"
	"rentory/pkg/config"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/model"
	"rentory/pkg/sanitizer"
)

type ItemService interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*model.Item, error)
	Update(ctx context.Context, id string, updates *model.ItemUpdate) (*model.Item, error)
	Delete(ctx context.Context, id string) error
}

type itemService struct {
	repo     repository.ItemRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewItemService(repo repository.ItemRepository, cfg *config.Config) ItemService {
	return &itemService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *itemService) Create(ctx context.Context, item *model.Item) error {
	s.sanitize(item)

	if item.IsDummy {
		// Templates hold no stock and get the next free display ID.
		item.Quantity = 0
		next, err := s.nextDisplayID(ctx)
		if err != nil {
			return err
		}
		item.DisplayID = &next
	} else {
		item.DisplayID = nil
	}

	if err := s.validate.Struct(item); err != nil {
		s.cfg.Log.Warn("Item validation failed", "error", err)
		return apperrors.Validation("Item validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, item); err != nil {
		s.cfg.Log.Error("Failed to create item", "error", err)
		return apperrors.Internal("Failed to create item", err)
	}

	s.cfg.Log.Info("Item created", "id", item.ID.Hex(), "name", item.Name, "is_dummy", item.IsDummy)
	return nil
}

func (s *itemService) GetByID(ctx context.Context, id string) (*model.Item, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Item ID cannot be empty")
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateItemError(err, id)
	}
	return item, nil
}

func (s *itemService) List(ctx context.Context, filter repository.ListFilter) ([]*model.Item, error) {
	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list items", "error", err)
		return nil, apperrors.Internal("Failed to retrieve items", err)
	}

	if filter.DummyOnly {
		refreshed, err := s.backfillDisplayIDs(ctx, items, filter)
		if err != nil {
			return nil, err
		}
		items = refreshed
	}

	if items == nil {
		items = []*model.Item{}
	}
	return items, nil
}

func (s *itemService) Update(ctx context.Context, id string, updates *model.ItemUpdate) (*model.Item, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateItemError(err, id)
	}

	if err := s.validate.Struct(updates); err != nil {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.merge(existing, updates)
	s.sanitize(merged)

	if err := s.validate.Struct(merged); err != nil {
		return nil, apperrors.Validation("Item validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, translateItemError(err, id)
	}

	s.cfg.Log.Info("Item updated", "id", id)
	return merged, nil
}

func (s *itemService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Item ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return translateItemError(err, id)
	}

	s.cfg.Log.Info("Item deleted", "id", id)
	return nil
}

func (s *itemService) sanitize(item *model.Item) {
	item.Name = sanitizer.NormalizeName(item.Name)
	item.Description = sanitizer.TrimAndNormalize(item.Description)
	item.Category = sanitizer.TrimAndNormalize(item.Category)
}

func (s *itemService) merge(existing *model.Item, updates *model.ItemUpdate) *model.Item {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	// Template stock stays pinned at zero.
	if updates.Quantity != nil && !merged.IsDummy {
		merged.Quantity = *updates.Quantity
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.Category != nil {
		merged.Category = *updates.Category
	}
	if updates.IsDummy != nil {
		merged.IsDummy = *updates.IsDummy
	}
	if updates.Image != nil {
		merged.Image = *updates.Image
	}

	return &merged
}

func (s *itemService) nextDisplayID(ctx context.Context) (int, error) {
	maxID, err := s.repo.MaxTemplateDisplayID(ctx)
	if err != nil {
		return 0, apperrors.Internal("Failed to determine next display ID", err)
	}
	if maxID < model.TemplateDisplayIDBase {
		return model.TemplateDisplayIDBase, nil
	}
	return maxID + 1, nil
}

// backfillDisplayIDs assigns display IDs to templates that predate the
// numbering scheme, then re-reads the sorted list.
func (s *itemService) backfillDisplayIDs(ctx context.Context, items []*model.Item, filter repository.ListFilter) ([]*model.Item, error) {
	var missing []*model.Item
	for _, item := range items {
		if item.DisplayID == nil || *item.DisplayID < model.TemplateDisplayIDBase {
			missing = append(missing, item)
		}
	}
	if len(missing) == 0 {
		return items, nil
	}

	next := model.TemplateDisplayIDBase
	for _, item := range items {
		if item.DisplayID != nil && *item.DisplayID >= next {
			next = *item.DisplayID + 1
		}
	}

	for _, item := range missing {
		if err := s.repo.SetDisplayID(ctx, item.ID, next); err != nil {
			return nil, apperrors.Internal("Failed to assign display ID", err)
		}
		next++
	}

	refreshed, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve items", err)
	}
	return refreshed, nil
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
