package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	itemserrors "rentory/internal/items/errors"
	"rentory/internal/items/repository"
	"rentory/pkg/config"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type mockItemRepository struct {
	createFunc       func(ctx context.Context, item *model.Item) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Item, error)
	findAllFunc      func(ctx context.Context, filter repository.ListFilter) ([]*model.Item, error)
	updateFunc       func(ctx context.Context, id string, item *model.Item) error
	setDisplayIDFunc func(ctx context.Context, id primitive.ObjectID, displayID int) error
	maxDisplayIDFunc func(ctx context.Context) (int, error)
	deleteFunc       func(ctx context.Context, id string) error
}

func (m *mockItemRepository) Create(ctx context.Context, item *model.Item) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, item)
	}
	return nil
}

func (m *mockItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, itemserrors.ErrNotFound
}

func (m *mockItemRepository) FindAll(ctx context.Context, filter repository.ListFilter) ([]*model.Item, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter)
	}
	return []*model.Item{}, nil
}

func (m *mockItemRepository) Update(ctx context.Context, id string, item *model.Item) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, item)
	}
	return nil
}

func (m *mockItemRepository) SetDisplayID(ctx context.Context, id primitive.ObjectID, displayID int) error {
	if m.setDisplayIDFunc != nil {
		return m.setDisplayIDFunc(ctx, id, displayID)
	}
	return nil
}

func (m *mockItemRepository) MaxTemplateDisplayID(ctx context.Context) (int, error) {
	if m.maxDisplayIDFunc != nil {
		return m.maxDisplayIDFunc(ctx)
	}
	return 0, nil
}

func (m *mockItemRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func TestCreate_TemplateGetsFirstDisplayID(t *testing.T) {
	var created *model.Item
	repo := &mockItemRepository{
		maxDisplayIDFunc: func(context.Context) (int, error) { return 0, nil },
		createFunc: func(_ context.Context, item *model.Item) error {
			created = item
			return nil
		},
	}
	svc := NewItemService(repo, testConfig())

	item := &model.Item{Name: "  Beamer  Vorlage ", IsDummy: true, Quantity: 99}
	require.NoError(t, svc.Create(context.Background(), item))

	require.NotNil(t, created)
	require.Equal(t, "Beamer Vorlage", created.Name)
	require.Equal(t, 0, created.Quantity)
	require.NotNil(t, created.DisplayID)
	require.Equal(t, model.TemplateDisplayIDBase, *created.DisplayID)
}

func TestCreate_TemplateIncrementsDisplayID(t *testing.T) {
	var created *model.Item
	repo := &mockItemRepository{
		maxDisplayIDFunc: func(context.Context) (int, error) { return 812, nil },
		createFunc: func(_ context.Context, item *model.Item) error {
			created = item
			return nil
		},
	}
	svc := NewItemService(repo, testConfig())

	require.NoError(t, svc.Create(context.Background(), &model.Item{Name: "Vorlage", IsDummy: true}))
	require.Equal(t, 813, *created.DisplayID)
}

func TestCreate_RegularItemHasNoDisplayID(t *testing.T) {
	var created *model.Item
	repo := &mockItemRepository{
		createFunc: func(_ context.Context, item *model.Item) error {
			created = item
			return nil
		},
	}
	svc := NewItemService(repo, testConfig())

	displayID := 801
	item := &model.Item{Name: "Kabel", Quantity: 5, DisplayID: &displayID}
	require.NoError(t, svc.Create(context.Background(), item))

	require.Nil(t, created.DisplayID)
	require.Equal(t, 5, created.Quantity)
}

func TestUpdate_TemplateQuantityStaysZero(t *testing.T) {
	existing := &model.Item{
		ID:       primitive.NewObjectID(),
		Name:     "Vorlage",
		IsDummy:  true,
		Quantity: 0,
	}
	repo := &mockItemRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Item, error) {
			return existing, nil
		},
	}
	svc := NewItemService(repo, testConfig())

	newQuantity := 7
	updated, err := svc.Update(context.Background(), existing.ID.Hex(), &model.ItemUpdate{Quantity: &newQuantity})
	require.NoError(t, err)
	require.Equal(t, 0, updated.Quantity)
}

func TestUpdate_RegularItemQuantityChanges(t *testing.T) {
	existing := &model.Item{
		ID:       primitive.NewObjectID(),
		Name:     "Kabel",
		Quantity: 3,
	}
	repo := &mockItemRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Item, error) {
			return existing, nil
		},
	}
	svc := NewItemService(repo, testConfig())

	newQuantity := 7
	updated, err := svc.Update(context.Background(), existing.ID.Hex(), &model.ItemUpdate{Quantity: &newQuantity})
	require.NoError(t, err)
	require.Equal(t, 7, updated.Quantity)
}

func TestGetByID_NotFound(t *testing.T) {
	svc := NewItemService(&mockItemRepository{}, testConfig())

	_, err := svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestList_BackfillsTemplateDisplayIDs(t *testing.T) {
	haveID := 805
	withID := &model.Item{ID: primitive.NewObjectID(), Name: "A", IsDummy: true, DisplayID: &haveID}
	withoutID := &model.Item{ID: primitive.NewObjectID(), Name: "B", IsDummy: true}

	assigned := map[string]int{}
	calls := 0
	repo := &mockItemRepository{
		findAllFunc: func(_ context.Context, filter repository.ListFilter) ([]*model.Item, error) {
			calls++
			return []*model.Item{withID, withoutID}, nil
		},
		setDisplayIDFunc: func(_ context.Context, id primitive.ObjectID, displayID int) error {
			assigned[id.Hex()] = displayID
			return nil
		},
	}
	svc := NewItemService(repo, testConfig())

	_, err := svc.List(context.Background(), repository.ListFilter{DummyOnly: true})
	require.NoError(t, err)

	require.Equal(t, 806, assigned[withoutID.ID.Hex()])
	require.Len(t, assigned, 1)
	// The list is re-read after the backfill.
	require.Equal(t, 2, calls)
}

func TestList_NoBackfillWhenComplete(t *testing.T) {
	haveID := 800
	repo := &mockItemRepository{
		findAllFunc: func(_ context.Context, filter repository.ListFilter) ([]*model.Item, error) {
			return []*model.Item{
				{ID: primitive.NewObjectID(), Name: "A", IsDummy: true, DisplayID: &haveID},
			}, nil
		},
		setDisplayIDFunc: func(context.Context, primitive.ObjectID, int) error {
			t.Fatal("SetDisplayID should not be called")
			return nil
		},
	}
	svc := NewItemService(repo, testConfig())

	items, err := svc.List(context.Background(), repository.ListFilter{DummyOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
}
