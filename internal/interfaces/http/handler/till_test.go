package handler

import (
	"context"
	"net/http"
	"testing"

	tillapp "github.com/erp/posledger/internal/application/till"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) CreateTill(ctx context.Context, actor shared.Actor, storeID uuid.UUID, name string) (*tillapp.TillResponse, error) {
	args := m.Called(ctx, actor, storeID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tillapp.TillResponse), args.Error(1)
}

func (m *MockSessionService) GetTill(ctx context.Context, actor shared.Actor, id uuid.UUID) (*tillapp.TillResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tillapp.TillResponse), args.Error(1)
}

func (m *MockSessionService) OpenSession(ctx context.Context, actor shared.Actor, tillID uuid.UUID, openingFloat decimal.Decimal) (*tillapp.SessionResponse, error) {
	args := m.Called(ctx, actor, tillID, openingFloat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tillapp.SessionResponse), args.Error(1)
}

func (m *MockSessionService) GetSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*tillapp.SessionResponse, error) {
	args := m.Called(ctx, actor, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tillapp.SessionResponse), args.Error(1)
}

func (m *MockSessionService) GetSessionSummary(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*tillapp.SummaryResponse, error) {
	args := m.Called(ctx, actor, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tillapp.SummaryResponse), args.Error(1)
}

func (m *MockSessionService) RecordCashMovement(ctx context.Context, actor shared.Actor, sessionID uuid.UUID, in tillapp.CashMovementInput) (*tillapp.CashTransactionResponse, error) {
	args := m.Called(ctx, actor, sessionID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tillapp.CashTransactionResponse), args.Error(1)
}

func (m *MockSessionService) ListCashMovements(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) ([]tillapp.CashTransactionResponse, error) {
	args := m.Called(ctx, actor, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tillapp.CashTransactionResponse), args.Error(1)
}

func (m *MockSessionService) CloseSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID, countedCash decimal.Decimal) (*tillapp.SummaryResponse, error) {
	args := m.Called(ctx, actor, sessionID, countedCash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tillapp.SummaryResponse), args.Error(1)
}

func (m *MockSessionService) RecomputeSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*tillapp.SessionResponse, error) {
	args := m.Called(ctx, actor, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tillapp.SessionResponse), args.Error(1)
}

var _ SessionService = (*MockSessionService)(nil)

func setupTillTestRouter(actor shared.Actor) (*gin.Engine, *MockSessionService) {
	svc := new(MockSessionService)
	h := NewTillHandler(svc)

	router := newTestRouter(actor)
	router.POST("/tills", h.CreateTill)
	router.GET("/tills/:id", h.GetTill)
	router.POST("/tills/:id/sessions", h.OpenSession)
	router.GET("/till-sessions/:id", h.GetSession)
	router.GET("/till-sessions/:id/summary", h.GetSummary)
	router.POST("/till-sessions/:id/cash-movements", h.RecordCashMovement)
	router.GET("/till-sessions/:id/cash-movements", h.ListCashMovements)
	router.POST("/till-sessions/:id/close", h.CloseSession)
	router.POST("/till-sessions/:id/recompute", h.RecomputeSession)
	return router, svc
}

func decimalEq(want string) any {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(money(want)) })
}

func TestTillHandler_CreateTill(t *testing.T) {
	actor := testActor()
	router, svc := setupTillTestRouter(actor)
	tillID := uuid.New()

	svc.On("CreateTill", mock.Anything, actor, actor.StoreID, "Front counter").
		Return(&tillapp.TillResponse{ID: tillID, StoreID: actor.StoreID, Name: "Front counter"}, nil).Once()

	w := doJSON(router, http.MethodPost, "/tills", map[string]any{"name": "Front counter"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, tillID.String(), dataMap(t, decodeResponse(t, w))["id"])

	w = doJSON(router, http.MethodPost, "/tills", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestTillHandler_OpenSession(t *testing.T) {
	actor := testActor()
	tillID := uuid.New()

	t.Run("opens with the float", func(t *testing.T) {
		router, svc := setupTillTestRouter(actor)
		svc.On("OpenSession", mock.Anything, actor, tillID, decimalEq("100")).
			Return(&tillapp.SessionResponse{ID: uuid.New(), TillID: tillID, Status: "OPEN", OpeningFloat: money("100")}, nil).Once()

		w := doJSON(router, http.MethodPost, "/tills/"+tillID.String()+"/sessions", map[string]any{"opening_float": "100.00"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "OPEN", dataMap(t, decodeResponse(t, w))["status"])
		svc.AssertExpectations(t)
	})

	t.Run("second open session conflicts", func(t *testing.T) {
		router, svc := setupTillTestRouter(actor)
		svc.On("OpenSession", mock.Anything, actor, tillID, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeSessionConflict, "Till already has an open session")).Once()

		w := doJSON(router, http.MethodPost, "/tills/"+tillID.String()+"/sessions", map[string]any{"opening_float": 0})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeSessionConflict, decodeResponse(t, w).Error.Code)
	})

	t.Run("negative float", func(t *testing.T) {
		router, _ := setupTillTestRouter(actor)
		w := doJSON(router, http.MethodPost, "/tills/"+tillID.String()+"/sessions", map[string]any{"opening_float": "-5"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTillHandler_CashMovements(t *testing.T) {
	actor := testActor()
	router, svc := setupTillTestRouter(actor)
	sessionID := uuid.New()

	svc.On("RecordCashMovement", mock.Anything, actor, sessionID, mock.MatchedBy(func(in tillapp.CashMovementInput) bool {
		return in.Type == "CASH_OUT" && in.Amount.Equal(money("12.50")) && in.Reason == "supplies"
	})).Return(&tillapp.CashTransactionResponse{ID: uuid.New(), SessionID: sessionID, Type: "CASH_OUT"}, nil).Once()
	svc.On("ListCashMovements", mock.Anything, actor, sessionID).
		Return([]tillapp.CashTransactionResponse{{Type: "CASH_OUT"}}, nil).Once()

	path := "/till-sessions/" + sessionID.String() + "/cash-movements"

	w := doJSON(router, http.MethodPost, path, map[string]any{"type": "CASH_OUT", "amount": "12.50", "reason": "supplies"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, path, map[string]any{"type": "REFUND", "amount": "1", "reason": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list, ok := decodeResponse(t, w).Data.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)

	svc.AssertExpectations(t)
}

func TestTillHandler_CloseAndSummary(t *testing.T) {
	actor := testActor()
	router, svc := setupTillTestRouter(actor)
	sessionID := uuid.New()
	variance := money("-0.50")

	svc.On("CloseSession", mock.Anything, actor, sessionID, decimalEq("149.50")).
		Return(&tillapp.SummaryResponse{SessionID: sessionID, Status: "CLOSED", ExpectedCash: money("150"), Variance: &variance}, nil).Once()
	svc.On("GetSessionSummary", mock.Anything, actor, sessionID).
		Return(&tillapp.SummaryResponse{SessionID: sessionID, Status: "CLOSED", ExpectedCash: money("150")}, nil).Once()

	w := doJSON(router, http.MethodPost, "/till-sessions/"+sessionID.String()+"/close", map[string]any{"counted_cash": "149.50"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, "CLOSED", data["status"])
	assert.Equal(t, "-0.5", data["variance"])

	w = doJSON(router, http.MethodGet, "/till-sessions/"+sessionID.String()+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "150", dataMap(t, decodeResponse(t, w))["expected_cash"])

	svc.AssertExpectations(t)
}

func TestTillHandler_CloseClosedSession(t *testing.T) {
	actor := testActor()
	router, svc := setupTillTestRouter(actor)
	sessionID := uuid.New()

	svc.On("CloseSession", mock.Anything, actor, sessionID, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodeInvalidState, "Session is not open")).Once()

	w := doJSON(router, http.MethodPost, "/till-sessions/"+sessionID.String()+"/close", map[string]any{"counted_cash": "0"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decodeResponse(t, w).Error.Code)
}

func TestTillHandler_Recompute(t *testing.T) {
	actor := testActor()
	router, svc := setupTillTestRouter(actor)
	sessionID := uuid.New()

	svc.On("RecomputeSession", mock.Anything, actor, sessionID).
		Return(&tillapp.SessionResponse{ID: sessionID, Status: "CLOSED", VarianceLevel: "NORMAL"}, nil).Twice()

	for range 2 {
		w := doJSON(router, http.MethodPost, "/till-sessions/"+sessionID.String()+"/recompute", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "NORMAL", dataMap(t, decodeResponse(t, w))["variance_level"])
	}
	svc.AssertExpectations(t)
}

func TestTillHandler_GetTillAndSession(t *testing.T) {
	actor := testActor()
	router, svc := setupTillTestRouter(actor)
	tillID, sessionID := uuid.New(), uuid.New()

	svc.On("GetTill", mock.Anything, actor, tillID).
		Return(nil, shared.NewDomainError(shared.CodeNotFound, "Till not found")).Once()
	svc.On("GetSession", mock.Anything, actor, sessionID).
		Return(&tillapp.SessionResponse{ID: sessionID, TillID: tillID, Status: "OPEN"}, nil).Once()

	w := doJSON(router, http.MethodGet, "/tills/"+tillID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/till-sessions/"+sessionID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tillID.String(), dataMap(t, decodeResponse(t, w))["till_id"])

	svc.AssertExpectations(t)
}
