package models

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("item not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrInquiryNotFound  = errors.New("inquiry not found")
)

var (
	ErrCartEmpty               = errors.New("cart is empty")
	ErrForbidden               = errors.New("you do not have permission to perform this action")
	ErrAlreadyCancelled        = errors.New("order is already cancelled")
	ErrDeliveredNotCancellable = errors.New("delivered orders cannot be cancelled")
	ErrNotCancellable          = errors.New("order can only be cancelled while pending or processing")
	ErrOrderFinal              = errors.New("order status can no longer be changed")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrInvalidQuantity         = errors.New("quantity must be at least 1")
	ErrDuplicateUsername       = errors.New("username already exists")
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrDuplicateCategory       = errors.New("category with this name already exists")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrProductNotFound, ErrCategoryNotFound, ErrCartNotFound,
		ErrCartItemNotFound, ErrOrderNotFound, ErrUserNotFound, ErrInquiryNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInvalid reports whether err is a client-side validation or state error.
func IsInvalid(err error) bool {
	for _, target := range []error{
		ErrCartEmpty, ErrAlreadyCancelled, ErrDeliveredNotCancellable, ErrNotCancellable,
		ErrOrderFinal, ErrInvalidStatus, ErrInvalidPaymentMethod, ErrInvalidQuantity,
		ErrDuplicateUsername, ErrDuplicateEmail, ErrDuplicateCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
