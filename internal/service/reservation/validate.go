package reservation

import (
	"slices"
	"strings"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/shopspring/decimal"
)

func requireMember(actor domain.Actor) error {
	if actor.UserID <= 0 {
		return domain.ErrUnauthenticated
	}
	return nil
}

func validateAmount(amount, minAmount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("amount", "amount must be greater than zero")
	}
	if minAmount.IsPositive() && amount.LessThan(minAmount) {
		return domain.NewValidationError("amount", "amount must be at least %s", minAmount.StringFixed(2))
	}
	if amount.Exponent() < -2 {
		return domain.NewValidationError("amount", "amount must have at most two decimal places")
	}
	return nil
}

func (l Limits) validateNumber(field string, number int) error {
	if number <= 0 {
		return domain.NewValidationError(field, "ticket number must be positive")
	}
	if l.PoolSize > 0 && number > l.PoolSize {
		return domain.NewValidationError(field, "ticket number must be between 1 and %d", l.PoolSize)
	}
	return nil
}

func (l Limits) validateReceipt(receipt *domain.Receipt, required bool) error {
	if receipt == nil || receipt.Body == nil {
		if required {
			return domain.NewValidationError("receipt", "receipt image is required")
		}
		return nil
	}
	if receipt.Size <= 0 {
		return domain.NewValidationError("receipt", "receipt image is empty")
	}
	if l.MaxReceiptBytes > 0 && receipt.Size > l.MaxReceiptBytes {
		return domain.NewValidationError("receipt", "receipt image must not exceed %d KB", l.MaxReceiptBytes/1024)
	}
	if len(l.AllowedReceiptTypes) > 0 && !slices.Contains(l.AllowedReceiptTypes, receipt.ContentType) {
		return domain.NewValidationError("receipt", "receipt must be one of: %s", strings.Join(l.AllowedReceiptTypes, ", "))
	}
	return nil
}
