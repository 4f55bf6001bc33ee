package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/judyrop/viara-backend/app/api"
	"github.com/judyrop/viara-backend/models"
)

type Product struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	Category     uint      `json:"category"`
	CategoryName string    `json:"category_name"`
	Image        *string   `json:"image"`
	InStock      bool      `json:"in_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductInput is the write shape. PUT and POST require every field except
// image and in_stock; PATCH applies only what is present.
type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *uint            `json:"category"`
	Image       *string          `json:"image"`
	InStock     *bool            `json:"in_stock"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type CatalogHandler struct {
	repo     ProductProvider
	mediaDir string
	log      logr.Logger
}

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

func NewCatalogHandler(r ProductProvider, mediaDir string, log logr.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo:     r,
		mediaDir: mediaDir,
		log:      log,
	}
}

// ToProduct maps a product with its category preloaded.
func ToProduct(p models.Product) Product {
	var image *string
	if p.Image != "" {
		img := p.Image
		image = &img
	}
	return Product{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price.StringFixed(2),
		Category:     p.CategoryID,
		CategoryName: p.Category.Name,
		Image:        image,
		InStock:      p.InStock,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (h *CatalogHandler) HandleGet(c *gin.Context) {
	filters := models.ProductFilters{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
		Ordering: c.Query("ordering"),
	}

	res, err := h.repo.GetFilteredProducts(c.Request.Context(), filters)
	if err != nil {
		h.log.Error(err, "failed to list products")
		api.Error(c, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = ToProduct(p)
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) HandleGetProduct(c *gin.Context) {
	product, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ToProduct(*product))
}

func (h *CatalogHandler) HandleCreate(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := input.validate(true); msg != "" {
		api.Error(c, http.StatusBadRequest, msg)
		return
	}

	product := &models.Product{InStock: true}
	input.apply(product)

	if err := h.repo.CreateProduct(c.Request.Context(), product); err != nil {
		h.writeErr(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, ToProduct(*product))
}

// HandleUpdate serves both PUT (full) and PATCH (partial).
func (h *CatalogHandler) HandleUpdate(c *gin.Context) {
	product, ok := h.lookup(c)
	if !ok {
		return
	}

	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := input.validate(c.Request.Method == http.MethodPut); msg != "" {
		api.Error(c, http.StatusBadRequest, msg)
		return
	}

	input.apply(product)
	if err := h.repo.UpdateProduct(c.Request.Context(), product); err != nil {
		h.writeErr(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, ToProduct(*product))
}

func (h *CatalogHandler) HandleDelete(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		api.Error(c, http.StatusNotFound, "Product not found")
		return
	}
	if err := h.repo.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeErr(c, err, "Failed to delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// HandleUploadImage stores a multipart "image" file under the media directory
// and points the product at it.
func (h *CatalogHandler) HandleUploadImage(c *gin.Context) {
	product, ok := h.lookup(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		api.Error(c, http.StatusBadRequest, "Image is required")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		api.Error(c, http.StatusBadRequest, "Unsupported image type")
		return
	}

	dir := filepath.Join(h.mediaDir, "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.log.Error(err, "failed to create upload folder", "dir", dir)
		api.Error(c, http.StatusInternalServerError, "Failed to save image")
		return
	}
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		h.log.Error(err, "failed to save image", "product", product.ID)
		api.Error(c, http.StatusInternalServerError, "Failed to save image")
		return
	}

	product.Image = "/media/products/" + name
	if err := h.repo.UpdateProduct(c.Request.Context(), product); err != nil {
		h.writeErr(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, ToProduct(*product))
}

func (h *CatalogHandler) lookup(c *gin.Context) (*models.Product, bool) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		api.Error(c, http.StatusNotFound, "Product not found")
		return nil, false
	}
	product, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeErr(c, err, "Failed to fetch product")
		return nil, false
	}
	return product, true
}

func (h *CatalogHandler) writeErr(c *gin.Context, err error, fallback string) {
	if errors.Is(err, models.ErrCategoryNotFound) {
		api.Error(c, http.StatusBadRequest, "Invalid category")
		return
	}
	status := api.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(err, fallback)
		api.Error(c, status, fallback)
		return
	}
	api.Fail(c, err)
}

func (in *ProductInput) validate(full bool) string {
	if full {
		var missing []string
		if in.Name == nil {
			missing = append(missing, "name")
		}
		if in.Description == nil {
			missing = append(missing, "description")
		}
		if in.Price == nil {
			missing = append(missing, "price")
		}
		if in.Category == nil {
			missing = append(missing, "category")
		}
		if len(missing) > 0 {
			return fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", "))
		}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return "Name may not be blank"
	}
	if in.Price != nil && in.Price.IsNegative() {
		return "Price must not be negative"
	}
	if in.Price != nil && !in.Price.Equal(in.Price.Round(2)) {
		return "Price may have at most 2 decimal places"
	}
	if in.Category != nil && *in.Category == 0 {
		return "Invalid category"
	}
	return ""
}

func (in *ProductInput) apply(p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.CategoryID = *in.Category
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
}
