package sales

import (
	"context"
	"fmt"

	appinv "github.com/erp/posledger/internal/application/inventory"
	"github.com/erp/posledger/internal/application/ledger"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ReturnService processes refunds against sales
type ReturnService struct {
	scope          ledger.TransactionScope
	returns        sales.SalesReturnRepository
	eventPublisher shared.EventPublisher
}

// NewReturnService creates a ReturnService
func NewReturnService(scope ledger.TransactionScope, returns sales.SalesReturnRepository) *ReturnService {
	return &ReturnService{scope: scope, returns: returns}
}

// SetEventPublisher sets the publisher used after commit
func (s *ReturnService) SetEventPublisher(p shared.EventPublisher) {
	s.eventPublisher = p
}

// CreateReturn refunds lines of a sale.
//
// The sale row is locked for the whole transaction, so two concurrent
// returns against one sale are checked against each other's quantities.
// Restocked lines go back into inventory. When the sale took cash, the
// refund is paid out of the refunding user's open session at the store; if
// there is none a RefundCashGap is recorded instead.
func (s *ReturnService) CreateReturn(ctx context.Context, actor shared.Actor, in CreateReturnInput) (resp *ReturnResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "return", "create",
		attribute.String("sale_id", in.SaleID.String()),
		attribute.Int("lines", len(in.Lines)))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapReturnCreate); err != nil {
		return nil, err
	}

	var collected ledger.Collector
	var ret *sales.SalesReturn
	var cashTxID, gapID *uuid.UUID
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		sale, err := repos.Sales().FindByIDForUpdate(ctx, actor.TenantID, in.SaleID)
		if err != nil {
			return err
		}
		prior, err := repos.Returns().FindBySale(ctx, actor.TenantID, sale.ID)
		if err != nil {
			return err
		}

		storeID := in.StoreID
		if storeID == uuid.Nil {
			storeID = actor.StoreID
		}
		ret, err = sales.NewSalesReturn(sales.NewReturnParams{
			Sale:      sale,
			Prior:     prior,
			Lines:     in.Lines,
			StoreID:   storeID,
			CreatedBy: actor.UserID,
			Reason:    in.Reason,
		})
		if err != nil {
			return err
		}

		owesCash := ret.OwesCash(sale)
		var session *till.TillSession
		if owesCash {
			session, err = lockOpenSession(ctx, repos, actor, ret.StoreID)
			if err != nil {
				return err
			}
			if session != nil {
				ret.MarkCashOutRecorded()
			}
		}

		if err := repos.Returns().Create(ctx, ret); err != nil {
			return err
		}

		for _, item := range ret.RestockedItems() {
			applied, err := appinv.ReturnRestock(ctx, repos, appinv.ReturnRestockInput{
				TenantID:  ret.TenantID,
				StoreID:   ret.StoreID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Reason:    ret.Reason,
				UserID:    actor.UserID,
				ReturnID:  ret.ID,
			})
			if err != nil {
				return err
			}
			collected.Add(applied.Events...)
		}

		if owesCash {
			if session != nil {
				saleID := sale.ID
				cashOut, err := till.NewCashTransaction(till.CashTransactionParams{
					Session:       session,
					Type:          till.CashOut,
					Amount:        ret.Total,
					Reason:        "Refund",
					Description:   fmt.Sprintf("Refund for sale %s", sale.ID),
					ReferenceType: till.ReferenceSaleRefund,
					ReferenceID:   &saleID,
					CreatedBy:     actor.UserID,
				})
				if err != nil {
					return err
				}
				if err := repos.CashTransactions().Append(ctx, cashOut); err != nil {
					return err
				}
				cashTxID = &cashOut.ID
			} else {
				gap, err := till.NewRefundCashGap(ret, till.GapDetectedAtReturn)
				if err != nil {
					return err
				}
				if err := repos.RefundGaps().Create(ctx, gap); err != nil {
					return err
				}
				gapID = &gap.ID
				collected.Add(till.NewRefundCashGapRecordedEvent(gap))
			}
		}

		collected.Collect(ret)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collected.Publish(ctx, s.eventPublisher)

	l := logger.L(ctx).With(
		zap.String("return_id", ret.ID.String()),
		zap.String("sale_id", ret.SaleID.String()),
		zap.String("total", ret.Total.StringFixed(2)))
	if gapID != nil {
		l.Warn("cash refund without an open till session",
			zap.String("refund_gap_id", gapID.String()),
			zap.String("store_id", ret.StoreID.String()))
	} else {
		l.Info("sales return created", zap.Bool("cash_out_recorded", ret.CashOutRecorded))
	}

	resp = ToReturnResponse(ret)
	resp.CashTransactionID = cashTxID
	resp.RefundGapID = gapID
	return resp, nil
}

// ListReturnsForSale returns every return recorded against a sale
func (s *ReturnService) ListReturnsForSale(ctx context.Context, actor shared.Actor, saleID uuid.UUID) ([]ReturnResponse, error) {
	if err := actor.Require(shared.CapSaleView); err != nil {
		return nil, err
	}
	list, err := s.returns.FindBySale(ctx, actor.TenantID, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]ReturnResponse, len(list))
	for i := range list {
		out[i] = *ToReturnResponse(&list[i])
	}
	return out, nil
}

// GetReturn returns one sales return
func (s *ReturnService) GetReturn(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ReturnResponse, error) {
	if err := actor.Require(shared.CapSaleView); err != nil {
		return nil, err
	}
	ret, err := s.returns.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	return ToReturnResponse(ret), nil
}
