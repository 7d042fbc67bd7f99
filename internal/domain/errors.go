package domain

import "errors"

var (
	ErrEmptyCart                = errors.New("cart is empty")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrInsufficientPayment      = errors.New("insufficient payment")
	ErrInvalidMode              = errors.New("invalid tender mode")
	ErrMissingCustomer          = errors.New("customer name is required for due sales")
	ErrUpfrontExceedsTotal      = errors.New("upfront payment exceeds total")
	ErrInvalidDiscount          = errors.New("invalid discount")
	ErrInvalidReturnRequest     = errors.New("invalid return request")
	ErrCollectionExceedsBalance = errors.New("collection exceeds due balance")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrDueSettled               = errors.New("due is already settled")
	ErrInvalidExpense           = errors.New("invalid expense")
	ErrInvalidLine              = errors.New("invalid cart line")
	ErrInvalidTaxRate           = errors.New("tax rate must not be negative")
	ErrDrawerNotOpen            = errors.New("drawer is not open for the day")
	ErrDrawerAlreadyOpen        = errors.New("drawer already opened for the day")
	ErrInvalidOpeningCash       = errors.New("opening cash must not be negative")
	ErrInvalidDay               = errors.New("day must be formatted as YYYY-MM-DD")
)

// IsValidation reports whether err belongs to the caller-correctable
// taxonomy, as opposed to storage or infrastructure failures.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyCart, ErrInsufficientStock, ErrInsufficientPayment, ErrInvalidMode,
		ErrMissingCustomer, ErrUpfrontExceedsTotal, ErrInvalidDiscount,
		ErrInvalidReturnRequest, ErrCollectionExceedsBalance, ErrInvalidAmount,
		ErrInvalidExpense, ErrInvalidLine, ErrInvalidTaxRate, ErrInvalidOpeningCash, ErrInvalidDay,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
