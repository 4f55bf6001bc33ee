package models

import "strings"

// ParseOrderStatus accepts any known status, case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch status := OrderStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

func ParsePaymentMethod(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case "":
		return PaymentMethodCOD, nil
	case PaymentMethodCOD, PaymentMethodOnline:
		return m, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// PaymentMethodDisplay is the human label of a payment method.
func PaymentMethodDisplay(m string) string {
	switch m {
	case PaymentMethodCOD:
		return "Cash on Delivery"
	case PaymentMethodOnline:
		return "Online Payment"
	}
	return m
}

// Cancel moves the order to cancelled on behalf of actorID.
// Owners may cancel while pending or processing. Admins may cancel anything
// short of delivered. Nobody cancels twice.
func (o *Order) Cancel(actorID uint, isAdmin bool) error {
	if o.UserID != actorID && !isAdmin {
		return ErrForbidden
	}
	switch o.Status {
	case OrderStatusCancelled:
		return ErrAlreadyCancelled
	case OrderStatusDelivered:
		return ErrDeliveredNotCancellable
	}
	if !isAdmin && o.Status != OrderStatusPending && o.Status != OrderStatusProcessing {
		return ErrNotCancellable
	}
	o.Status = OrderStatusCancelled
	return nil
}

// Transition applies an admin status change. Cancellation goes through Cancel.
func (o *Order) Transition(to OrderStatus, actorID uint, isAdmin bool) error {
	if !isAdmin {
		return ErrForbidden
	}
	if to == OrderStatusCancelled {
		return o.Cancel(actorID, isAdmin)
	}
	if o.Status == OrderStatusCancelled || o.Status == OrderStatusDelivered {
		return ErrOrderFinal
	}
	o.Status = to
	return nil
}
