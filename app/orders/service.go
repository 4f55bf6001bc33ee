package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/judyrop/viara-backend/app/auth"
	"github.com/judyrop/viara-backend/models"
	"github.com/judyrop/viara-backend/notify"
)

type OrderStore interface {
	CreateFromCart(ctx context.Context, userID uint, details models.OrderDetails) (*models.Order, error)
	ListOrders(ctx context.Context, userID *uint) ([]models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, order *models.Order) error
}

type CheckoutInput struct {
	PaymentMethod   string `json:"payment_method"`
	ShippingAddress string `json:"shipping_address"`
	Phone           string `json:"phone"`
}

// Service owns the order lifecycle: checkout from the cart, visibility and
// status changes.
type Service struct {
	store  OrderStore
	mailer notify.Notifier
	sms    notify.Notifier
	log    logr.Logger
}

// NewService wires the store and notifiers. sms may be nil.
func NewService(store OrderStore, mailer, sms notify.Notifier, log logr.Logger) *Service {
	return &Service{store: store, mailer: mailer, sms: sms, log: log}
}

func (s *Service) CreateFromCart(ctx context.Context, p auth.Principal, in CheckoutInput) (*models.Order, error) {
	method, err := models.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	order, err := s.store.CreateFromCart(ctx, p.UserID, models.OrderDetails{
		PaymentMethod:   method,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		Phone:           strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order created", "order", order.ID, "user", p.UserID, "total", order.TotalAmount.StringFixed(2))

	notify.Send(ctx, s.mailer, s.log, confirmationEmail(p, order))
	if s.sms != nil && order.Phone != "" {
		notify.Send(ctx, s.sms, s.log, notify.Message{
			To:   order.Phone,
			Body: fmt.Sprintf("Hi %s, your order #%d has been placed!", p.Username, order.ID),
		})
	}
	return order, nil
}

// List returns every order to admins and only their own to everyone else.
func (s *Service) List(ctx context.Context, p auth.Principal) ([]models.Order, error) {
	if p.IsAdmin {
		return s.store.ListOrders(ctx, nil)
	}
	return s.store.ListOrders(ctx, &p.UserID)
}

func (s *Service) Get(ctx context.Context, p auth.Principal, id uint) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != p.UserID && !p.IsAdmin {
		return nil, models.ErrForbidden
	}
	return order, nil
}

func (s *Service) Cancel(ctx context.Context, p auth.Principal, id uint) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(p.UserID, p.IsAdmin); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("order cancelled", "order", order.ID, "by", p.UserID, "admin", p.IsAdmin)
	return order, nil
}

// UpdateStatus is the admin status change.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, id uint, status string) (*models.Order, error) {
	if !p.IsAdmin {
		return nil, models.ErrForbidden
	}
	to, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := order.Transition(to, p.UserID, p.IsAdmin); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("order status changed", "order", order.ID, "from", from, "to", order.Status)
	return order, nil
}

func confirmationEmail(p auth.Principal, order *models.Order) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order #%d.\n\n", p.Username, order.ID)
	for i := range order.Items {
		item := &order.Items[i]
		fmt.Fprintf(&b, "  %s x%d  %s\n", item.ProductName, item.Quantity, item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\nPayment: %s\n", order.TotalAmount.StringFixed(2), models.PaymentMethodDisplay(order.PaymentMethod))
	if order.ShippingAddress != "" {
		fmt.Fprintf(&b, "Shipping to: %s\n", order.ShippingAddress)
	}
	b.WriteString("\nBest regards,\nVIARA Store Team")
	return notify.Message{
		To:      p.Email,
		Subject: fmt.Sprintf("Order #%d confirmed - VIARA", order.ID),
		Body:    b.String(),
	}
}
