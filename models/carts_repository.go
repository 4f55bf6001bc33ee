package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CartsRepository struct {
	db *gorm.DB
}

func NewCartsRepository(db *gorm.DB) *CartsRepository {
	return &CartsRepository{db: db}
}

// GetOrCreate returns the user's cart with items loaded, creating an empty
// cart on first access.
func (r *CartsRepository) GetOrCreate(ctx context.Context, userID uint) (*Cart, error) {
	cart, err := firstOrCreateCart(r.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return r.load(ctx, cart.ID)
}

// AddItem puts quantity units of the product into the cart. An existing line
// for the same product is incremented rather than duplicated.
func (r *CartsRepository) AddItem(ctx context.Context, userID, productID uint, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var cartID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Select("id").First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		cart, err := firstOrCreateCart(tx, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		res := tx.Model(&CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		return tx.Omit("Product").Create(&CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.load(ctx, cartID)
}

// RemoveItem deletes a cart line, but only from a cart the user owns.
func (r *CartsRepository) RemoveItem(ctx context.Context, userID, itemID uint) error {
	db := r.db.WithContext(ctx)
	owned := db.Model(&Cart{}).Select("id").Where("user_id = ?", userID)

	res := db.Where("id = ? AND cart_id IN (?)", itemID, owned).Delete(&CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// Clear empties the user's cart. A user without a cart has an empty one
// created, so clearing is always a success.
func (r *CartsRepository) Clear(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	cart, err := firstOrCreateCart(db, userID)
	if err != nil {
		return err
	}
	return db.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error
}

func (r *CartsRepository) load(ctx context.Context, cartID uint) (*Cart, error) {
	var cart Cart
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product.Category").
		First(&cart, cartID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func firstOrCreateCart(db *gorm.DB, userID uint) (*Cart, error) {
	var cart Cart
	if err := db.Where(Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}
