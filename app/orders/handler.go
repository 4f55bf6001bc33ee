package orders

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/judyrop/viara-backend/app/api"
	"github.com/judyrop/viara-backend/app/auth"
	"github.com/judyrop/viara-backend/models"
)

type OrderItem struct {
	ID          uint   `json:"id"`
	Product     uint   `json:"product"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Subtotal    string `json:"subtotal"`
}

type Order struct {
	ID                   uint        `json:"id"`
	User                 uint        `json:"user"`
	TotalAmount          string      `json:"total_amount"`
	Status               string      `json:"status"`
	PaymentMethod        string      `json:"payment_method"`
	PaymentMethodDisplay string      `json:"payment_method_display"`
	ShippingAddress      string      `json:"shipping_address"`
	Phone                string      `json:"phone"`
	Items                []OrderItem `json:"items"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

type OrderService interface {
	CreateFromCart(ctx context.Context, p auth.Principal, in CheckoutInput) (*models.Order, error)
	List(ctx context.Context, p auth.Principal) ([]models.Order, error)
	Get(ctx context.Context, p auth.Principal, id uint) (*models.Order, error)
	Cancel(ctx context.Context, p auth.Principal, id uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, p auth.Principal, id uint, status string) (*models.Order, error)
}

type OrderHandler struct {
	svc OrderService
	log logr.Logger
}

func NewOrderHandler(svc OrderService, log logr.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

func ToOrder(o *models.Order) Order {
	items := make([]OrderItem, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = OrderItem{
			ID:          item.ID,
			Product:     item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			Subtotal:    item.Subtotal().StringFixed(2),
		}
	}
	return Order{
		ID:                   o.ID,
		User:                 o.UserID,
		TotalAmount:          o.TotalAmount.StringFixed(2),
		Status:               string(o.Status),
		PaymentMethod:        o.PaymentMethod,
		PaymentMethodDisplay: models.PaymentMethodDisplay(o.PaymentMethod),
		ShippingAddress:      o.ShippingAddress,
		Phone:                o.Phone,
		Items:                items,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

func (h *OrderHandler) HandleList(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	orders, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err, "Failed to fetch orders")
		return
	}
	response := make([]Order, len(orders))
	for i := range orders {
		response[i] = ToOrder(&orders[i])
	}
	c.JSON(http.StatusOK, response)
}

// HandleCreateFromCart accepts an empty body; every checkout field has a default.
func (h *OrderHandler) HandleCreateFromCart(c *gin.Context) {
	var input CheckoutInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			api.Error(c, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	}

	p, _ := auth.CurrentPrincipal(c)
	order, err := h.svc.CreateFromCart(c.Request.Context(), p, input)
	if err != nil {
		h.fail(c, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"order":   ToOrder(order),
	})
}

func (h *OrderHandler) HandleGet(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		api.Error(c, http.StatusNotFound, "Order not found")
		return
	}
	p, _ := auth.CurrentPrincipal(c)
	order, err := h.svc.Get(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, ToOrder(order))
}

func (h *OrderHandler) HandleCancel(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		api.Error(c, http.StatusNotFound, "Order not found")
		return
	}
	p, _ := auth.CurrentPrincipal(c)
	order, err := h.svc.Cancel(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, err, "Failed to cancel order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"order":   ToOrder(order),
	})
}

func (h *OrderHandler) HandleUpdateStatus(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		api.Error(c, http.StatusNotFound, "Order not found")
		return
	}
	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Status == "" {
		api.Error(c, http.StatusBadRequest, "status is required")
		return
	}

	p, _ := auth.CurrentPrincipal(c)
	order, err := h.svc.UpdateStatus(c.Request.Context(), p, id, input.Status)
	if err != nil {
		h.fail(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, ToOrder(order))
}

func (h *OrderHandler) fail(c *gin.Context, err error, fallback string) {
	if api.StatusFor(err) == http.StatusInternalServerError {
		h.log.Error(err, fallback)
		api.Error(c, http.StatusInternalServerError, fallback)
		return
	}
	api.Fail(c, err)
}
