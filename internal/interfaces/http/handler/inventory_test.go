package handler

import (
	"context"
	"net/http"
	"testing"

	catalogapp "github.com/erp/posledger/internal/application/catalog"
	invapp "github.com/erp/posledger/internal/application/inventory"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) AdjustStock(ctx context.Context, actor shared.Actor, in invapp.AdjustStockInput) (*invapp.RecordResponse, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.RecordResponse), args.Error(1)
}

func (m *MockInventoryService) Restock(ctx context.Context, actor shared.Actor, in invapp.RestockInput) (*invapp.RestockResponse, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.RestockResponse), args.Error(1)
}

func (m *MockInventoryService) GetInventory(ctx context.Context, actor shared.Actor, storeID, productID uuid.UUID) (*invapp.RecordResponse, error) {
	args := m.Called(ctx, actor, storeID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.RecordResponse), args.Error(1)
}

func (m *MockInventoryService) ListEvents(ctx context.Context, actor shared.Actor, storeID, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[invapp.EventResponse], error) {
	args := m.Called(ctx, actor, storeID, productID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[invapp.EventResponse]), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) RegisterProduct(ctx context.Context, actor shared.Actor, in catalogapp.RegisterProductInput) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, actor shared.Actor, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

var (
	_ InventoryService = (*MockInventoryService)(nil)
	_ ProductService   = (*MockProductService)(nil)
)

func setupInventoryTestRouter(actor shared.Actor) (*gin.Engine, *MockInventoryService) {
	svc := new(MockInventoryService)
	h := NewInventoryHandler(svc)

	router := newTestRouter(actor)
	router.POST("/inventory/adjustments", h.AdjustStock)
	router.POST("/inventory/receipts", h.ReceiveStock)
	router.GET("/inventory/stores/:store_id/products/:product_id", h.GetInventory)
	router.GET("/inventory/stores/:store_id/products/:product_id/events", h.ListEvents)
	return router, svc
}

func TestInventoryHandler_AdjustStock(t *testing.T) {
	actor := testActor()
	productID := uuid.New()

	t.Run("negative delta", func(t *testing.T) {
		router, svc := setupInventoryTestRouter(actor)
		svc.On("AdjustStock", mock.Anything, actor, invapp.AdjustStockInput{
			StoreID:   actor.StoreID,
			ProductID: productID,
			Delta:     -3,
			Reason:    "breakage",
		}).Return(&invapp.RecordResponse{ProductID: productID, Quantity: 7}, nil).Once()

		w := doJSON(router, http.MethodPost, "/inventory/adjustments", map[string]any{
			"product_id": productID,
			"delta":      -3,
			"reason":     "breakage",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("zero delta", func(t *testing.T) {
		router, _ := setupInventoryTestRouter(actor)
		w := doJSON(router, http.MethodPost, "/inventory/adjustments", map[string]any{
			"product_id": productID,
			"delta":      0,
			"reason":     "count",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		router, svc := setupInventoryTestRouter(actor)
		svc.On("AdjustStock", mock.Anything, actor, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Adjustment would overflow stock")).Once()

		w := doJSON(router, http.MethodPost, "/inventory/adjustments", map[string]any{
			"product_id": productID,
			"delta":      -100,
			"reason":     "shrink",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidQuantity, decodeResponse(t, w).Error.Code)
	})
}

func TestInventoryHandler_ReceiveStock(t *testing.T) {
	actor := testActor()
	router, svc := setupInventoryTestRouter(actor)
	productID, storeID := uuid.New(), uuid.New()

	svc.On("Restock", mock.Anything, actor, mock.MatchedBy(func(in invapp.RestockInput) bool {
		return in.StoreID == storeID && in.ProductID == productID && in.Quantity == 10 &&
			in.UnitCost.Equal(money("4.20")) && in.NewPrice != nil && in.NewPrice.Equal(money("7"))
	})).Return(&invapp.RestockResponse{}, nil).Once()

	w := doJSON(router, http.MethodPost, "/inventory/receipts", map[string]any{
		"store_id":   storeID,
		"product_id": productID,
		"quantity":   10,
		"unit_cost":  "4.20",
		"new_price":  "7",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/inventory/receipts", map[string]any{
		"product_id": productID,
		"quantity":   10,
		"unit_cost":  "-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestInventoryHandler_GetAndEvents(t *testing.T) {
	actor := testActor()
	router, svc := setupInventoryTestRouter(actor)
	storeID, productID := uuid.New(), uuid.New()
	page := shared.NewPaginated([]invapp.EventResponse{{}, {}}, 2, 1, 20)

	svc.On("GetInventory", mock.Anything, actor, storeID, productID).
		Return(&invapp.RecordResponse{StoreID: storeID, ProductID: productID, Quantity: 0}, nil).Once()
	svc.On("ListEvents", mock.Anything, actor, storeID, productID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20
	})).Return(&page, nil).Once()

	base := "/inventory/stores/" + storeID.String() + "/products/" + productID.String()

	w := doJSON(router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, dataMap(t, decodeResponse(t, w))["quantity"])

	w = doJSON(router, http.MethodGet, base+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, int64(2), resp.Meta.Total)

	w = doJSON(router, http.MethodGet, "/inventory/stores/nope/products/"+productID.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestCatalogHandler(t *testing.T) {
	actor := testActor()
	svc := new(MockProductService)
	h := NewCatalogHandler(svc)
	router := newTestRouter(actor)
	router.POST("/catalog/products", h.RegisterProduct)
	router.GET("/catalog/products/:id", h.GetProduct)

	productID := uuid.New()
	svc.On("RegisterProduct", mock.Anything, actor, mock.MatchedBy(func(in catalogapp.RegisterProductInput) bool {
		return in.SKU == "SKU-1" && in.Price.Equal(money("9.99"))
	})).Return(&catalogapp.ProductResponse{ID: productID, SKU: "SKU-1"}, nil).Once()
	svc.On("GetProduct", mock.Anything, actor, productID).
		Return(&catalogapp.ProductResponse{ID: productID, SKU: "SKU-1"}, nil).Once()

	w := doJSON(router, http.MethodPost, "/catalog/products", map[string]any{
		"sku": "SKU-1", "name": "Widget", "cost_price": "5", "price": "9.99",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/catalog/products", map[string]any{"name": "No SKU"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/catalog/products/"+productID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SKU-1", dataMap(t, decodeResponse(t, w))["sku"])

	svc.AssertExpectations(t)
}
