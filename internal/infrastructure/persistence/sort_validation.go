package persistence

import "strings"

// Sort fields arrive as raw query params and get interpolated into
// ORDER BY, so both field and direction must pass a whitelist.

// ValidateSortOrder returns "ASC" only for an explicit ascending
// request; anything else, including garbage, falls back to "DESC".
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when the whitelist allows it,
// otherwise defaultField. Matching is exact after trimming.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	if field := strings.TrimSpace(sortField); allowedFields[field] {
		return field
	}
	return defaultField
}

// withCommonFields builds a whitelist from the entity-specific columns
// plus id and the timestamp columns every table carries.
func withCommonFields(fields ...string) map[string]bool {
	allowed := map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
	}
	for _, f := range fields {
		allowed[f] = true
	}
	return allowed
}

var (
	SupplierSortFields     = withCommonFields("code", "name", "status", "payment_days")
	CustomerSortFields     = withCommonFields("name", "status", "payment_days")
	InvoiceSortFields      = withCommonFields("invoice_number", "invoice_date", "due_date", "total_amount", "paid_amount", "status", "type")
	PaymentSortFields      = withCommonFields("payment_number", "payment_date", "amount", "method", "status")
	BatchPaymentSortFields = withCommonFields("batch_reference", "status", "processed_date")
)
