package sales

import (
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSale        = "Sale"
	AggregateTypeSalesReturn = "SalesReturn"

	EventTypeSaleCreated        = "SaleCreated"
	EventTypeSaleStatusChanged  = "SaleStatusChanged"
	EventTypeSalesReturnCreated = "SalesReturnCreated"
)

// SaleCreatedEvent is published after a checkout commits
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	StoreID       uuid.UUID       `json:"store_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Total         decimal.Decimal `json:"total"`
	Status        SaleStatus      `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	ItemCount     int             `json:"item_count"`
}

// NewSaleCreatedEvent creates a SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.TenantID),
		StoreID:         s.StoreID,
		UserID:          s.UserID,
		Total:           s.Total,
		Status:          s.Status,
		PaymentMethod:   s.PaymentMethod,
		ItemCount:       len(s.Items),
	}
}

// SaleStatusChangedEvent is published after an explicit status transition
type SaleStatusChangedEvent struct {
	shared.BaseDomainEvent
	From   SaleStatus `json:"from"`
	To     SaleStatus `json:"to"`
	Reason string     `json:"reason,omitempty"`
}

// NewSaleStatusChangedEvent creates a SaleStatusChangedEvent
func NewSaleStatusChangedEvent(s *Sale, from SaleStatus) *SaleStatusChangedEvent {
	return &SaleStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleStatusChanged, AggregateTypeSale, s.ID, s.TenantID),
		From:            from,
		To:              s.Status,
		Reason:          s.StatusReason,
	}
}

// SalesReturnCreatedEvent is published after a refund commits
type SalesReturnCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	StoreID       uuid.UUID       `json:"store_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	RestockedQty  int64           `json:"restocked_qty"`
}

// NewSalesReturnCreatedEvent creates a SalesReturnCreatedEvent
func NewSalesReturnCreatedEvent(r *SalesReturn, sale *Sale) *SalesReturnCreatedEvent {
	var restocked int64
	for _, item := range r.Items {
		if item.Restock {
			restocked += item.Quantity
		}
	}
	return &SalesReturnCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesReturnCreated, AggregateTypeSalesReturn, r.ID, r.TenantID),
		SaleID:          r.SaleID,
		StoreID:         r.StoreID,
		Total:           r.Total,
		PaymentMethod:   sale.PaymentMethod,
		RestockedQty:    restocked,
	}
}
