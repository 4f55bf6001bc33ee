package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type OrdersRepository struct {
	db *gorm.DB
}

// OrderDetails are the checkout fields supplied by the customer.
type OrderDetails struct {
	PaymentMethod   string
	ShippingAddress string
	Phone           string
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

// CreateFromCart turns the user's cart into a pending order and empties the
// cart. The order, its item snapshots and the cart clearing commit together.
func (r *OrdersRepository) CreateFromCart(ctx context.Context, userID uint, details OrderDetails) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart Cart
		if err := tx.Preload("Items.Product").
			Where("user_id = ?", userID).
			First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartEmpty
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrCartEmpty
		}

		items := make([]OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			items = append(items, OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				Quantity:    item.Quantity,
				Price:       item.Product.Price,
			})
		}

		order = Order{
			UserID:          userID,
			TotalAmount:     cart.TotalPrice(),
			Status:          OrderStatusPending,
			PaymentMethod:   details.PaymentMethod,
			ShippingAddress: details.ShippingAddress,
			Phone:           details.Phone,
			Items:           items,
		}
		if err := tx.Omit("User").Create(&order).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders newest first. A nil userID lists every order.
func (r *OrdersRepository) ListOrders(ctx context.Context, userID *uint) ([]Order, error) {
	var orders []Order
	query := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrdersRepository) GetByID(ctx context.Context, id uint) (*Order, error) {
	var order Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrdersRepository) UpdateStatus(ctx context.Context, order *Order) error {
	return r.db.WithContext(ctx).Model(order).Update("status", order.Status).Error
}
