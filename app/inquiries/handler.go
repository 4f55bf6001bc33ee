package inquiries

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

type InquiryResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type InquiryProvider interface {
	CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error
	GetAllInquiries(ctx context.Context) ([]models.Inquiry, error)
	GetByID(ctx context.Context, id uint) (*models.Inquiry, error)
}

type InquiryHandler struct {
	repo InquiryProvider
	log  logr.Logger
}

func NewInquiryHandler(r InquiryProvider, log logr.Logger) *InquiryHandler {
	return &InquiryHandler{repo: r, log: log}
}

func toResponse(i models.Inquiry) InquiryResponse {
	return InquiryResponse{ID: i.ID, Name: i.Name, Email: i.Email, Message: i.Message, CreatedAt: i.CreatedAt}
}

// HandleCreate accepts a contact-form submission from anyone.
func (h *InquiryHandler) HandleCreate(c *gin.Context) {
	var input struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	inquiry := &models.Inquiry{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Message: strings.TrimSpace(input.Message),
	}
	if inquiry.Name == "" || inquiry.Email == "" || inquiry.Message == "" {
		api.Error(c, http.StatusBadRequest, "Name, email, and message are required")
		return
	}
	if !api.LooksLikeEmail(inquiry.Email) {
		api.Error(c, http.StatusBadRequest, "Please provide a valid email address")
		return
	}

	if err := h.repo.CreateInquiry(c.Request.Context(), inquiry); err != nil {
		h.log.Error(err, "failed to save inquiry")
		api.Error(c, http.StatusInternalServerError, "Failed to submit inquiry")
		return
	}
	c.JSON(http.StatusCreated, toResponse(*inquiry))
}

func (h *InquiryHandler) HandleGetAll(c *gin.Context) {
	inquiries, err := h.repo.GetAllInquiries(c.Request.Context())
	if err != nil {
		h.log.Error(err, "failed to fetch inquiries")
		api.Error(c, http.StatusInternalServerError, "Failed to fetch inquiries")
		return
	}
	response := make([]InquiryResponse, len(inquiries))
	for i, inq := range inquiries {
		response[i] = toResponse(inq)
	}
	c.JSON(http.StatusOK, response)
}

func (h *InquiryHandler) HandleGet(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		api.Error(c, http.StatusNotFound, "Inquiry not found")
		return
	}
	inquiry, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if api.StatusFor(err) == http.StatusNotFound {
			api.Fail(c, err)
			return
		}
		h.log.Error(err, "failed to fetch inquiry", "id", id)
		api.Error(c, http.StatusInternalServerError, "Failed to fetch inquiry")
		return
	}
	c.JSON(http.StatusOK, toResponse(*inquiry))
}
