package service

import (
	"errors"
)

// DomainError is a rule violation with a stable code shared with the HTTP layer.
// The code vocabulary is a cross-layer contract: never rename a code.
type DomainError struct {
	Code string
}

func (e *DomainError) Error() string {
	return e.Code
}

func newDomainError(code string) *DomainError {
	return &DomainError{Code: code}
}

// Ledger
var (
	ErrInsufficientBalance   = newDomainError("insufficient_balance")
	ErrMinimumAmount         = newDomainError("minimum_amount")
	ErrPixKeyRequired        = newDomainError("pix_key_required")
	ErrInvalidPixKeyType     = newDomainError("invalid_pix_key_type")
	ErrWithdrawalNotPending  = newDomainError("withdrawal_not_pending")
	ErrWithdrawalNotFound    = newDomainError("withdrawal_not_found")
	ErrTrialAlreadyUsed      = newDomainError("trial_already_used")
	ErrPlanAlreadyActive     = newDomainError("plan_already_active")
	ErrInvalidAmount         = newDomainError("invalid_amount")
	ErrUserNotFound          = newDomainError("user_not_found")
	ErrInvalidDiscordID      = newDomainError("invalid_discord_id")
	ErrTransactionNotFound   = newDomainError("transaction_not_found")
	ErrTransactionNotPending = newDomainError("transaction_not_pending")
)

// Inventory
var (
	ErrStockEmpty           = newDomainError("stock_empty")
	ErrDuplicateVariantID   = newDomainError("duplicate_variant_id")
	ErrDuplicateProductID   = newDomainError("duplicate_product_id")
	ErrInvalidProductID     = newDomainError("invalid_product_id")
	ErrInvalidVariantID     = newDomainError("invalid_variant_id")
	ErrInstanceNotFound     = newDomainError("instance_not_found")
	ErrProductNotFound      = newDomainError("product_not_found")
	ErrVariantNotFound      = newDomainError("variant_not_found")
	ErrBucketRequired       = newDomainError("bucket_required")
	ErrInvalidRuntimeStatus = newDomainError("invalid_runtime_status")
	ErrInvalidInput         = newDomainError("invalid_input")
)

// CodeInternal is reported for anything that is not a domain rule violation
const CodeInternal = "internal_error"

// ErrorCode returns the stable code carried by err, or CodeInternal
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsDomainError reports whether err is a rule violation rather than a failure
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
