package categories

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/judyrop/viara-backend/app/api"
	"github.com/judyrop/viara-backend/models"
)

type CategoryResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CategoryProvider interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type CategoryHandler struct {
	repo CategoryProvider
	log  logr.Logger
}

func NewCategoryHandler(r CategoryProvider, log logr.Logger) *CategoryHandler {
	return &CategoryHandler{repo: r, log: log}
}

func toResponse(c models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func (h *CategoryHandler) HandleGetAll(c *gin.Context) {
	categories, err := h.repo.GetAllCategories(c.Request.Context())
	if err != nil {
		h.log.Error(err, "failed to fetch categories")
		api.Error(c, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, cat := range categories {
		response[i] = toResponse(cat)
	}
	c.JSON(http.StatusOK, response)
}

func (h *CategoryHandler) HandleGet(c *gin.Context) {
	category, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toResponse(*category))
}

func (h *CategoryHandler) HandleCreate(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}

	category := &models.Category{Name: name}
	if err := h.repo.CreateCategory(c.Request.Context(), category); err != nil {
		h.writeErr(c, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": toResponse(*category),
	})
}

func (h *CategoryHandler) HandleUpdate(c *gin.Context) {
	category, ok := h.lookup(c)
	if !ok {
		return
	}
	name, ok := bindName(c)
	if !ok {
		return
	}

	category.Name = name
	if err := h.repo.UpdateCategory(c.Request.Context(), category); err != nil {
		h.writeErr(c, err, "Failed to update category")
		return
	}
	c.JSON(http.StatusOK, toResponse(*category))
}

// HandleDelete removes the category and, with it, its products.
func (h *CategoryHandler) HandleDelete(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		api.Error(c, http.StatusNotFound, "Category not found")
		return
	}
	if err := h.repo.DeleteCategory(c.Request.Context(), id); err != nil {
		h.writeErr(c, err, "Failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func (h *CategoryHandler) lookup(c *gin.Context) (*models.Category, bool) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		api.Error(c, http.StatusNotFound, "Category not found")
		return nil, false
	}
	category, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeErr(c, err, "Failed to fetch category")
		return nil, false
	}
	return category, true
}

func (h *CategoryHandler) writeErr(c *gin.Context, err error, fallback string) {
	if api.StatusFor(err) == http.StatusInternalServerError {
		h.log.Error(err, fallback)
		api.Error(c, http.StatusInternalServerError, fallback)
		return
	}
	api.Fail(c, err)
}

func bindName(c *gin.Context) (string, bool) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return "", false
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		api.Error(c, http.StatusBadRequest, "Missing name")
		return "", false
	}
	return name, true
}
