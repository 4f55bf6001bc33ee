package models

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

type ProductFilters struct {
	Search   string
	Category string
	Ordering string
}

// productOrderings maps the accepted ordering values to SQL. Anything else
// falls back to newest first.
var productOrderings = map[string]string{
	"price":       "products.price ASC",
	"-price":      "products.price DESC",
	"created_at":  "products.created_at ASC",
	"-created_at": "products.created_at DESC",
	"name":        "products.name ASC",
	"-name":       "products.name DESC",
}

const defaultProductOrdering = "-created_at"

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, filters ProductFilters) ([]Product, error) {
	var products []Product

	query := r.db.WithContext(ctx).Model(&Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Preload("Category")

	if filters.Search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filters.Search)) + "%"
		query = query.Where(`LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	if filters.Category != "" {
		query = query.Where("LOWER(categories.name) = ?", strings.ToLower(filters.Category))
	}

	order, ok := productOrderings[strings.TrimSpace(filters.Ordering)]
	if !ok {
		order = productOrderings[defaultProductOrdering]
	}

	if err := query.Order(order).Order("products.id DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductsRepository) CreateProduct(ctx context.Context, product *Product) error {
	if err := r.ensureCategory(ctx, product.CategoryID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("Category").Create(product).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Category").First(product, product.ID).Error
}

func (r *ProductsRepository) UpdateProduct(ctx context.Context, product *Product) error {
	if err := r.ensureCategory(ctx, product.CategoryID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("Category", "CreatedAt").Save(product).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Category").First(product, product.ID).Error
}

func (r *ProductsRepository) DeleteProduct(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

func (r *ProductsRepository) ensureCategory(ctx context.Context, id uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
