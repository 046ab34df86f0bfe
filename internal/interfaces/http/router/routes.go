package router

import (
	"time"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/interfaces/http/handler"
	"github.com/erp/posledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers are the endpoint sets of the ledger API
type Handlers struct {
	Catalog   *handler.CatalogHandler
	Inventory *handler.InventoryHandler
	Sales     *handler.SaleHandler
	Tills     *handler.TillHandler
	Audit     *handler.AuditHandler
	Reports   *handler.ReportHandler
	System    *handler.SystemHandler
}

// LedgerRoutes builds the domain groups of the ledger API. Checkout and
// refunds honour the Idempotency-Key header.
func LedgerRoutes(h Handlers, idempotency shared.IdempotencyStore, idempotencyTTL time.Duration) []RouteRegistrar {
	require := middleware.RequireCapability
	once := middleware.Idempotency(idempotency, idempotencyTTL)

	catalog := NewDomainGroup("catalog", "/catalog").
		POST("/products", require(shared.CapCatalogManage), h.Catalog.RegisterProduct).
		GET("/products/:id", h.Catalog.GetProduct)

	inventory := NewDomainGroup("inventory", "/inventory").
		POST("/adjustments", require(shared.CapInventoryAdjust), h.Inventory.AdjustStock).
		POST("/receipts", require(shared.CapInventoryReceive), h.Inventory.ReceiveStock).
		GET("/stores/:store_id/products/:product_id", h.Inventory.GetInventory).
		GET("/stores/:store_id/products/:product_id/events", h.Inventory.ListEvents)

	sales := NewDomainGroup("sales", "/sales").
		POST("", require(shared.CapSaleCreate), once, h.Sales.CreateSale).
		GET("", h.Sales.ListSales).
		GET("/:id", h.Sales.GetSale).
		POST("/:id/status", h.Sales.TransitionStatus).
		POST("/:id/returns", require(shared.CapReturnCreate), once, h.Sales.CreateReturn).
		GET("/:id/returns", h.Sales.ListReturns)

	returns := NewDomainGroup("returns", "/returns").
		GET("/:id", h.Sales.GetReturn)

	tills := NewDomainGroup("tills", "/tills").
		POST("", require(shared.CapTillSupervise), h.Tills.CreateTill).
		GET("/:id", h.Tills.GetTill).
		POST("/:id/sessions", require(shared.CapTillOperate), h.Tills.OpenSession)

	sessions := NewDomainGroup("till-sessions", "/till-sessions").
		GET("/:id", h.Tills.GetSession).
		GET("/:id/summary", h.Tills.GetSummary).
		GET("/:id/cash-movements", h.Tills.ListCashMovements).
		POST("/:id/cash-movements", require(shared.CapTillOperate), h.Tills.RecordCashMovement).
		POST("/:id/close", require(shared.CapTillOperate), h.Tills.CloseSession).
		POST("/:id/recompute", require(shared.CapTillSupervise), h.Tills.RecomputeSession)

	audit := NewDomainGroup("audit", "/audit").
		Use(require(shared.CapAuditRun))
	audit.Group("refund-gaps", "/refund-gaps").
		GET("", h.Audit.ListRefundGaps).
		POST("/scan", h.Audit.ScanRefundGaps).
		POST("/:id/resolve", h.Audit.ResolveRefundGap)

	reports := NewDomainGroup("reports", "/reports").
		Use(require(shared.CapReportView)).
		GET("/stats", h.Reports.GetStats)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	return []RouteRegistrar{catalog, inventory, sales, returns, tills, sessions, audit, reports, system}
}

// RegisterHealth mounts the unauthenticated health endpoints on the engine
func RegisterHealth(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
	engine.GET("/healthz", system.Health)
}
