package persistence

import (
	"strings"

	"github.com/erp/posledger/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// paginate applies a whitelisted ORDER BY plus LIMIT/OFFSET
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	filter = filter.Normalize()
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	return query.Order(field + " " + dir).Offset(filter.Offset()).Limit(filter.PageSize)
}

// SaleSortFields contains allowed sort fields for sales
var SaleSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"store_id":       true,
	"user_id":        true,
	"status":         true,
	"payment_method": true,
	"subtotal":       true,
	"total":          true,
}

// InventoryEventSortFields contains allowed sort fields for the stock log
var InventoryEventSortFields = map[string]bool{
	"id":            true,
	"occurred_at":   true,
	"type":          true,
	"quantity":      true,
	"balance_after": true,
}

// RefundGapSortFields contains allowed sort fields for refund cash gaps
var RefundGapSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"store_id":    true,
	"amount":      true,
	"status":      true,
	"detected_by": true,
}
