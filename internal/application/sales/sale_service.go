// Package sales implements checkout, sale status changes and returns.
package sales

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"

	appinv "github.com/erp/posledger/internal/application/inventory"
	"github.com/erp/posledger/internal/application/ledger"
	"github.com/erp/posledger/internal/domain/catalog"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SaleService processes checkouts
type SaleService struct {
	scope          ledger.TransactionScope
	sales          sales.SaleRepository
	eventPublisher shared.EventPublisher
}

// NewSaleService creates a SaleService
func NewSaleService(scope ledger.TransactionScope, saleRepo sales.SaleRepository) *SaleService {
	return &SaleService{scope: scope, sales: saleRepo}
}

// SetEventPublisher sets the publisher used after commit
func (s *SaleService) SetEventPublisher(p shared.EventPublisher) {
	s.eventPublisher = p
}

// CreateSale records a checkout: it snapshots product costs, links the
// cashier's open till session, persists the sale and decrements stock, all in
// one transaction.
func (s *SaleService) CreateSale(ctx context.Context, actor shared.Actor, in CreateSaleInput) (resp *SaleResponse, err error) {
	storeID := in.StoreID
	if storeID == uuid.Nil {
		storeID = actor.StoreID
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create",
		attribute.String("store_id", storeID.String()),
		attribute.Int("items", len(in.Items)))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapSaleCreate); err != nil {
		return nil, err
	}
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Store is required")
	}
	if len(in.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Sale must have at least one item")
	}
	payments, err := parsePayments(in.Payments)
	if err != nil {
		return nil, err
	}
	var status sales.SaleStatus
	if strings.TrimSpace(in.Status) != "" {
		if status, err = sales.ParseSaleStatus(in.Status); err != nil {
			return nil, err
		}
	}

	var collected ledger.Collector
	var sale *sales.Sale
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		costs, err := lockProductCosts(ctx, repos.Products(), actor.TenantID, in.Items)
		if err != nil {
			return err
		}
		items := make([]sales.ItemInput, len(in.Items))
		for i, line := range in.Items {
			items[i] = sales.ItemInput{
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				PriceAtSale: line.Price,
				CostAtSale:  costs[line.ProductID],
			}
		}

		var sessionID *uuid.UUID
		session, err := lockOpenSession(ctx, repos, actor, storeID)
		if err != nil {
			return err
		}
		if session != nil {
			sessionID = &session.ID
		}

		sale, err = sales.NewSale(sales.NewSaleParams{
			TenantID:       actor.TenantID,
			StoreID:        storeID,
			UserID:         actor.UserID,
			CustomerID:     in.CustomerID,
			TillSessionID:  sessionID,
			Items:          items,
			Payments:       payments,
			DiscountAmount: in.DiscountAmount,
			TaxAmount:      in.TaxAmount,
			Status:         status,
		})
		if err != nil {
			return err
		}
		if err := repos.Sales().Create(ctx, sale); err != nil {
			return err
		}

		for _, item := range sale.Items {
			applied, err := appinv.SaleDecrement(ctx, repos, appinv.SaleDecrementInput{
				TenantID:  sale.TenantID,
				StoreID:   sale.StoreID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UserID:    actor.UserID,
				SaleID:    sale.ID,
			})
			if err != nil {
				return err
			}
			collected.Add(applied.Events...)
		}
		collected.Collect(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collected.Publish(ctx, s.eventPublisher)

	fields := []zap.Field{
		zap.String("sale_id", sale.ID.String()),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.String("payment_method", sale.PaymentMethod.String()),
		zap.String("status", sale.Status.String()),
	}
	if sale.TillSessionID == nil {
		fields = append(fields, zap.Bool("no_till_session", true))
	}
	logger.L(ctx).Info("sale created", fields...)
	return ToSaleResponse(sale), nil
}

// lockProductCosts reads the cost of every product on the sale under a row
// lock, in id order so concurrent checkouts lock in the same sequence
func lockProductCosts(ctx context.Context, products catalog.ProductRepository, tenantID uuid.UUID, lines []SaleItemInput) (map[uuid.UUID]decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	costs := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for _, id := range ids {
		p, err := products.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		costs[id] = p.CostPrice
	}
	return costs, nil
}

func parsePayments(in []PaymentInput) ([]sales.PaymentInput, error) {
	out := make([]sales.PaymentInput, len(in))
	for i, p := range in {
		method, err := sales.ParsePaymentMethod(p.Method)
		if err != nil {
			return nil, err
		}
		out[i] = sales.PaymentInput{Method: method, Amount: p.Amount, Tendered: p.Tendered}
	}
	return out, nil
}

// GetSale returns a sale of the actor's tenant
func (s *SaleService) GetSale(ctx context.Context, actor shared.Actor, id uuid.UUID) (*SaleResponse, error) {
	if err := actor.Require(shared.CapSaleView); err != nil {
		return nil, err
	}
	sale, err := s.sales.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// ListSales pages through sales, newest first. Supported filters: status,
// store_id, till_session_id.
func (s *SaleService) ListSales(ctx context.Context, actor shared.Actor, filter shared.Filter) (*shared.Paginated[SaleResponse], error) {
	if err := actor.Require(shared.CapSaleView); err != nil {
		return nil, err
	}
	filter = filter.Normalize()
	list, total, err := s.sales.List(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]SaleResponse, len(list))
	for i := range list {
		items[i] = *ToSaleResponse(&list[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// TransitionSaleStatus moves a sale through the status state machine.
// CANCELED and VOID need the void capability.
func (s *SaleService) TransitionSaleStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, target, reason string) (resp *SaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "transition",
		attribute.String("sale_id", id.String()),
		attribute.String("target", target))
	defer func() { telemetry.EndSpan(span, err) }()

	status, err := sales.ParseSaleStatus(target)
	if err != nil {
		return nil, err
	}
	required := shared.CapSaleCreate
	if status.RequiresVoidCapability() {
		required = shared.CapSaleVoid
	}
	if err := actor.Require(required); err != nil {
		return nil, err
	}

	var collected ledger.Collector
	var sale *sales.Sale
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		sale, err = repos.Sales().FindByIDForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		expected := sale.Version
		if err := sale.TransitionTo(status, strings.TrimSpace(reason)); err != nil {
			return err
		}
		if err := repos.Sales().UpdateStatus(ctx, sale, expected); err != nil {
			return err
		}
		collected.Collect(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collected.Publish(ctx, s.eventPublisher)

	logger.L(ctx).Info("sale status changed",
		zap.String("sale_id", sale.ID.String()),
		zap.String("status", sale.Status.String()))
	return ToSaleResponse(sale), nil
}

// lockOpenSession returns the actor's open session in the store with its row
// locked, or nil when there is none. Holding the lock until commit keeps a
// concurrent CloseSession from summing the drawer without this transaction.
func lockOpenSession(ctx context.Context, repos ledger.Repositories, actor shared.Actor, storeID uuid.UUID) (*till.TillSession, error) {
	session, err := repos.Sessions().FindOpenByUserStoreForUpdate(ctx, actor.TenantID, actor.UserID, storeID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, nil
	}
	return session, nil
}
