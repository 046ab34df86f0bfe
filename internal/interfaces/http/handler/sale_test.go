package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	salesapp "github.com/erp/posledger/internal/application/sales"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) CreateSale(ctx context.Context, actor shared.Actor, in salesapp.CreateSaleInput) (*salesapp.SaleResponse, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) GetSale(ctx context.Context, actor shared.Actor, id uuid.UUID) (*salesapp.SaleResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) ListSales(ctx context.Context, actor shared.Actor, filter shared.Filter) (*shared.Paginated[salesapp.SaleResponse], error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[salesapp.SaleResponse]), args.Error(1)
}

func (m *MockSaleService) TransitionSaleStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, target, reason string) (*salesapp.SaleResponse, error) {
	args := m.Called(ctx, actor, id, target, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SaleResponse), args.Error(1)
}

type MockReturnService struct {
	mock.Mock
}

func (m *MockReturnService) CreateReturn(ctx context.Context, actor shared.Actor, in salesapp.CreateReturnInput) (*salesapp.ReturnResponse, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.ReturnResponse), args.Error(1)
}

func (m *MockReturnService) ListReturnsForSale(ctx context.Context, actor shared.Actor, saleID uuid.UUID) ([]salesapp.ReturnResponse, error) {
	args := m.Called(ctx, actor, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]salesapp.ReturnResponse), args.Error(1)
}

func (m *MockReturnService) GetReturn(ctx context.Context, actor shared.Actor, id uuid.UUID) (*salesapp.ReturnResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.ReturnResponse), args.Error(1)
}

var (
	_ SaleService   = (*MockSaleService)(nil)
	_ ReturnService = (*MockReturnService)(nil)
)

func setupSaleTestRouter(actor shared.Actor) (*gin.Engine, *MockSaleService, *MockReturnService) {
	saleSvc := new(MockSaleService)
	returnSvc := new(MockReturnService)
	h := NewSaleHandler(saleSvc, returnSvc)

	router := newTestRouter(actor)
	router.POST("/sales", h.CreateSale)
	router.GET("/sales", h.ListSales)
	router.GET("/sales/:id", h.GetSale)
	router.POST("/sales/:id/status", h.TransitionStatus)
	router.POST("/sales/:id/returns", h.CreateReturn)
	router.GET("/sales/:id/returns", h.ListReturns)
	router.GET("/returns/:id", h.GetReturn)
	return router, saleSvc, returnSvc
}

func TestSaleHandler_CreateSale(t *testing.T) {
	actor := testActor()
	productID := uuid.New()

	t.Run("defaults the store and maps lines", func(t *testing.T) {
		router, saleSvc, _ := setupSaleTestRouter(actor)
		saleID := uuid.New()

		saleSvc.On("CreateSale", mock.Anything, actor, mock.MatchedBy(func(in salesapp.CreateSaleInput) bool {
			return in.StoreID == actor.StoreID &&
				len(in.Items) == 1 && in.Items[0].ProductID == productID && in.Items[0].Quantity == 2 &&
				in.Items[0].Price.Equal(money("10")) &&
				len(in.Payments) == 1 && in.Payments[0].Method == "CASH" &&
				in.Payments[0].Tendered != nil && in.Payments[0].Tendered.Equal(money("25"))
		})).Return(&salesapp.SaleResponse{ID: saleID, Total: money("20"), Status: "COMPLETED"}, nil).Once()

		w := doJSON(router, http.MethodPost, "/sales", map[string]any{
			"items":    []map[string]any{{"product_id": productID, "quantity": 2, "price": "10"}},
			"payments": []map[string]any{{"method": "CASH", "amount": "20", "tendered": "25"}},
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, saleID.String(), dataMap(t, resp)["id"])
		saleSvc.AssertExpectations(t)
	})

	t.Run("rejects a body without items", func(t *testing.T) {
		router, saleSvc, _ := setupSaleTestRouter(actor)

		w := doJSON(router, http.MethodPost, "/sales", map[string]any{
			"items":    []map[string]any{},
			"payments": []map[string]any{{"method": "CASH", "amount": "20"}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
		saleSvc.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a zero payment", func(t *testing.T) {
		router, _, _ := setupSaleTestRouter(actor)

		w := doJSON(router, http.MethodPost, "/sales", map[string]any{
			"items":    []map[string]any{{"product_id": productID, "quantity": 1, "price": "10"}},
			"payments": []map[string]any{{"method": "CASH", "amount": "0"}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("payment mismatch is unprocessable", func(t *testing.T) {
		router, saleSvc, _ := setupSaleTestRouter(actor)
		saleSvc.On("CreateSale", mock.Anything, actor, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodePaymentMismatch, "Payments do not cover the total")).Once()

		w := doJSON(router, http.MethodPost, "/sales", map[string]any{
			"items":    []map[string]any{{"product_id": productID, "quantity": 1, "price": "10"}},
			"payments": []map[string]any{{"method": "CARD", "amount": "5"}},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodePaymentMismatch, decodeResponse(t, w).Error.Code)
	})
}

func TestSaleHandler_GetSale(t *testing.T) {
	actor := testActor()

	t.Run("found", func(t *testing.T) {
		router, saleSvc, _ := setupSaleTestRouter(actor)
		saleID := uuid.New()
		saleSvc.On("GetSale", mock.Anything, actor, saleID).
			Return(&salesapp.SaleResponse{ID: saleID, Status: "COMPLETED"}, nil).Once()

		w := doJSON(router, http.MethodGet, "/sales/"+saleID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "COMPLETED", dataMap(t, decodeResponse(t, w))["status"])
	})

	t.Run("not found", func(t *testing.T) {
		router, saleSvc, _ := setupSaleTestRouter(actor)
		saleID := uuid.New()
		saleSvc.On("GetSale", mock.Anything, actor, saleID).
			Return(nil, shared.NewDomainError(shared.CodeNotFound, "Sale not found")).Once()

		w := doJSON(router, http.MethodGet, "/sales/"+saleID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		router, _, _ := setupSaleTestRouter(actor)
		w := doJSON(router, http.MethodGet, "/sales/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSaleHandler_ListSales(t *testing.T) {
	actor := testActor()

	t.Run("passes filters through", func(t *testing.T) {
		router, saleSvc, _ := setupSaleTestRouter(actor)
		storeID := uuid.New()
		page := shared.NewPaginated([]salesapp.SaleResponse{{ID: uuid.New()}}, 1, 1, 20)

		saleSvc.On("ListSales", mock.Anything, actor, mock.MatchedBy(func(f shared.Filter) bool {
			from, _ := f.Filters["from"].(time.Time)
			return f.Filters["store_id"] == storeID &&
				f.Filters["status"] == sales.SaleStatusPending &&
				from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				f.PageSize == 20
		})).Return(&page, nil).Once()

		w := doJSON(router, http.MethodGet, "/sales?store_id="+storeID.String()+"&status=pending&from=2026-03-01&page_size=20", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
		saleSvc.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		router, _, _ := setupSaleTestRouter(actor)
		w := doJSON(router, http.MethodGet, "/sales?status=LOST", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
	})

	t.Run("bad time", func(t *testing.T) {
		router, _, _ := setupSaleTestRouter(actor)
		w := doJSON(router, http.MethodGet, "/sales?to=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSaleHandler_TransitionStatus(t *testing.T) {
	actor := testActor()
	router, saleSvc, _ := setupSaleTestRouter(actor)
	saleID := uuid.New()

	saleSvc.On("TransitionSaleStatus", mock.Anything, actor, saleID, "VOID", "till error").
		Return(nil, shared.NewDomainError(shared.CodeInvalidStatusTransition, "Cannot move REFUNDED to VOID")).Once()

	w := doJSON(router, http.MethodPost, "/sales/"+saleID.String()+"/status", map[string]any{
		"status": "VOID",
		"reason": "till error",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidStatusTransition, decodeResponse(t, w).Error.Code)
	saleSvc.AssertExpectations(t)
}

func TestSaleHandler_CreateReturn(t *testing.T) {
	actor := testActor()
	productA, productB := uuid.New(), uuid.New()

	t.Run("restock defaults to true", func(t *testing.T) {
		router, _, returnSvc := setupSaleTestRouter(actor)
		saleID := uuid.New()
		cashID := uuid.New()

		returnSvc.On("CreateReturn", mock.Anything, actor, mock.MatchedBy(func(in salesapp.CreateReturnInput) bool {
			return in.SaleID == saleID && in.StoreID == uuid.Nil && len(in.Lines) == 2 &&
				in.Lines[0] == sales.ReturnLine{ProductID: productA, Quantity: 1, Restock: true} &&
				in.Lines[1] == sales.ReturnLine{ProductID: productB, Quantity: 2, Restock: false}
		})).Return(&salesapp.ReturnResponse{ID: uuid.New(), SaleID: saleID, Total: money("30"), CashTransactionID: &cashID}, nil).Once()

		w := doJSON(router, http.MethodPost, "/sales/"+saleID.String()+"/returns", map[string]any{
			"lines": []map[string]any{
				{"product_id": productA, "quantity": 1},
				{"product_id": productB, "quantity": 2, "restock": false},
			},
			"reason": "damaged",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		returnSvc.AssertExpectations(t)
	})

	t.Run("over return", func(t *testing.T) {
		router, _, returnSvc := setupSaleTestRouter(actor)
		returnSvc.On("CreateReturn", mock.Anything, actor, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeOverReturn, "Return quantity exceeds sold quantity")).Once()

		w := doJSON(router, http.MethodPost, "/sales/"+uuid.NewString()+"/returns", map[string]any{
			"lines": []map[string]any{{"product_id": productA, "quantity": 9}},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeOverReturn, decodeResponse(t, w).Error.Code)
	})

	t.Run("zero quantity is rejected before the service", func(t *testing.T) {
		router, _, returnSvc := setupSaleTestRouter(actor)

		w := doJSON(router, http.MethodPost, "/sales/"+uuid.NewString()+"/returns", map[string]any{
			"lines": []map[string]any{{"product_id": productA, "quantity": 0}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		returnSvc.AssertNotCalled(t, "CreateReturn", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSaleHandler_ListAndGetReturns(t *testing.T) {
	actor := testActor()
	router, _, returnSvc := setupSaleTestRouter(actor)
	saleID := uuid.New()
	returnID := uuid.New()

	returnSvc.On("ListReturnsForSale", mock.Anything, actor, saleID).
		Return([]salesapp.ReturnResponse{{ID: returnID, SaleID: saleID}}, nil).Once()
	returnSvc.On("GetReturn", mock.Anything, actor, returnID).
		Return(&salesapp.ReturnResponse{ID: returnID, SaleID: saleID}, nil).Once()

	w := doJSON(router, http.MethodGet, "/sales/"+saleID.String()+"/returns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list, ok := decodeResponse(t, w).Data.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)

	w = doJSON(router, http.MethodGet, "/returns/"+returnID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, saleID.String(), dataMap(t, decodeResponse(t, w))["sale_id"])

	returnSvc.AssertExpectations(t)
}
