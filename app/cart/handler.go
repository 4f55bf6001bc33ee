package cart

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/judyrop/viara-backend/app/api"
	"github.com/judyrop/viara-backend/app/auth"
	"github.com/judyrop/viara-backend/app/catalog"
	"github.com/judyrop/viara-backend/models"
)

type CartItem struct {
	ID        uint            `json:"id"`
	Product   catalog.Product `json:"product"`
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  string          `json:"subtotal"`
	AddedAt   time.Time       `json:"added_at"`
}

type Cart struct {
	ID         uint       `json:"id"`
	User       uint       `json:"user"`
	Items      []CartItem `json:"items"`
	TotalPrice string     `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
}

type CartProvider interface {
	GetOrCreate(ctx context.Context, userID uint) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID uint, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uint) error
	Clear(ctx context.Context, userID uint) error
}

type CartHandler struct {
	repo CartProvider
	log  logr.Logger
}

func NewCartHandler(r CartProvider, log logr.Logger) *CartHandler {
	return &CartHandler{repo: r, log: log}
}

func ToCart(c *models.Cart) Cart {
	items := make([]CartItem, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		items[i] = CartItem{
			ID:        item.ID,
			Product:   catalog.ToProduct(item.Product),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal().StringFixed(2),
			AddedAt:   item.AddedAt,
		}
	}
	return Cart{
		ID:         c.ID,
		User:       c.UserID,
		Items:      items,
		TotalPrice: c.TotalPrice().StringFixed(2),
		CreatedAt:  c.CreatedAt,
	}
}

// HandleCurrent returns the caller's cart, creating it on first access.
func (h *CartHandler) HandleCurrent(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	cart, err := h.repo.GetOrCreate(c.Request.Context(), p.UserID)
	if err != nil {
		h.fail(c, err, "Failed to fetch cart")
		return
	}
	c.JSON(http.StatusOK, ToCart(cart))
}

func (h *CartHandler) HandleAddItem(c *gin.Context) {
	var input struct {
		ProductID *uint `json:"product_id"`
		Quantity  *int  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.ProductID == nil {
		api.Error(c, http.StatusBadRequest, "product_id is required")
		return
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}

	p, _ := auth.CurrentPrincipal(c)
	cart, err := h.repo.AddItem(c.Request.Context(), p.UserID, *input.ProductID, quantity)
	if err != nil {
		h.fail(c, err, "Failed to add item to cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"cart":    ToCart(cart),
	})
}

func (h *CartHandler) HandleRemoveItem(c *gin.Context) {
	var input struct {
		ItemID *uint `json:"item_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.ItemID == nil {
		api.Error(c, http.StatusBadRequest, "item_id is required")
		return
	}

	p, _ := auth.CurrentPrincipal(c)
	if err := h.repo.RemoveItem(c.Request.Context(), p.UserID, *input.ItemID); err != nil {
		h.fail(c, err, "Failed to remove item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *CartHandler) HandleClear(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	if err := h.repo.Clear(c.Request.Context(), p.UserID); err != nil {
		h.fail(c, err, "Failed to clear cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (h *CartHandler) fail(c *gin.Context, err error, fallback string) {
	if api.StatusFor(err) == http.StatusInternalServerError {
		h.log.Error(err, fallback)
		api.Error(c, http.StatusInternalServerError, fallback)
		return
	}
	api.Fail(c, err)
}
