package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:150;not null"`
	Email        string `gorm:"uniqueIndex;size:254;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	Phone        string `gorm:"size:20"`
	Address      string
	IsStaff      bool `gorm:"not null;default:false"`
	IsSuperuser  bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// AuthToken is the opaque bearer credential issued at registration or login.
// Each user owns at most one.
type AuthToken struct {
	Key       string `gorm:"column:token_key;primaryKey;size:40"`
	UserID    uint   `gorm:"uniqueIndex;not null"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:100;not null"`
	CreatedAt time.Time
}

type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:200;not null"`
	Description string          `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID  uint            `gorm:"index;not null"`
	Category    Category        `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Image       string
	InStock     bool `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cart struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"uniqueIndex;not null"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// TotalPrice sums the subtotals of the preloaded items.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey"`
	CartID    uint    `gorm:"uniqueIndex:idx_cart_product;not null"`
	ProductID uint    `gorm:"uniqueIndex:idx_cart_product;not null"`
	Product   Product `gorm:"constraint:OnDelete:CASCADE"`
	Quantity  int     `gorm:"not null;default:1"`
	AddedAt   time.Time
}

func (i *CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              uint            `gorm:"primaryKey"`
	UserID          uint            `gorm:"index;not null"`
	User            User            `gorm:"constraint:OnDelete:CASCADE"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null;default:'cod'"`
	ShippingAddress string
	Phone           string      `gorm:"size:20"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a snapshot of a cart line at order time. Price is the unit
// price then and does not follow later product changes.
type OrderItem struct {
	ID          uint `gorm:"primaryKey"`
	OrderID     uint `gorm:"index;not null"`
	ProductID   uint `gorm:"index"`
	ProductName string
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Inquiry struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Email     string `gorm:"size:254;not null"`
	Message   string `gorm:"not null"`
	CreatedAt time.Time
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &AuthToken{}, &Category{}, &Product{},
		&Cart{}, &CartItem{}, &Order{}, &OrderItem{}, &Inquiry{},
	}
}
