package categories

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"

	"github.com/judyrop/viara-backend/models"
)

// --- Mock Repository ---

type MockCategoryRepo struct {
	Categories []models.Category
	CreateErr  error
	ListErr    error
	DeleteErr  error
	LastSaved  *models.Category
}

func (m *MockCategoryRepo) GetAllCategories(context.Context) ([]models.Category, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Categories, nil
}

func (m *MockCategoryRepo) GetByID(_ context.Context, id uint) (*models.Category, error) {
	for i := range m.Categories {
		if m.Categories[i].ID == id {
			c := m.Categories[i]
			return &c, nil
		}
	}
	return nil, models.ErrCategoryNotFound
}

func (m *MockCategoryRepo) CreateCategory(_ context.Context, cat *models.Category) error {
	m.LastSaved = cat
	return m.CreateErr
}

func (m *MockCategoryRepo) UpdateCategory(_ context.Context, cat *models.Category) error {
	m.LastSaved = cat
	return m.CreateErr
}

func (m *MockCategoryRepo) DeleteCategory(_ context.Context, id uint) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	_, err := m.GetByID(context.Background(), id)
	return err
}

func newRouter(repo *MockCategoryRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCategoryHandler(repo, logr.Discard())
	r := gin.New()
	r.GET("/categories/", h.HandleGetAll)
	r.GET("/categories/:id/", h.HandleGet)
	r.POST("/categories/", h.HandleCreate)
	r.PUT("/categories/:id/", h.HandleUpdate)
	r.DELETE("/categories/:id/", h.HandleDelete)
	return r
}

// --- Tests: GET /categories ---

func TestHandleGetAll(t *testing.T) {
	testCases := []struct {
		name               string
		mockRepoSetup      func() *MockCategoryRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success with multiple categories",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					Categories: []models.Category{{ID: 1, Name: "Dresses"}, {ID: 2, Name: "Shoes"}},
				}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []CategoryResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Len(t, resp, 2)
				assert.Equal(t, "Shoes", resp[1].Name)
			},
		},
		{
			name: "Success with empty list",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{Categories: []models.Category{}}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rec.Body.String())
			},
		},
		{
			name: "Repository error",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{ListErr: errors.New("db down")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "failed to fetch categories", errResp["error"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			router := newRouter(tc.mockRepoSetup())
			req := httptest.NewRequest("GET", "/categories/", nil)
			rec := httptest.NewRecorder()

			// Act
			router.ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}

// --- Tests: POST /categories ---

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		body               string
		mockRepoSetup      func() *MockCategoryRepo
		expectedStatusCode int
		expectedError      string
	}{
		{
			name:               "Success",
			body:               `{"name":"  Bags "}`,
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{} },
			expectedStatusCode: http.StatusCreated,
		},
		{
			name:               "Blank name",
			body:               `{"name":"  "}`,
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "Missing name",
		},
		{
			name:               "Duplicate name",
			body:               `{"name":"Bags"}`,
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{CreateErr: models.ErrDuplicateCategory} },
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "Category with this name already exists",
		},
		{
			name:               "Repository error",
			body:               `{"name":"Bags"}`,
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{CreateErr: errors.New("db down")} },
			expectedStatusCode: http.StatusInternalServerError,
			expectedError:      "Failed to create category",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := tc.mockRepoSetup()
			router := newRouter(repo)
			req := httptest.NewRequest("POST", "/categories/", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectedError != "" {
				var errResp map[string]string
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
				assert.Equal(t, tc.expectedError, errResp["error"])
				return
			}
			assert.Equal(t, "Bags", repo.LastSaved.Name)
			assert.Contains(t, rec.Body.String(), "Category created successfully")
		})
	}
}

func TestHandleUpdateAndDelete(t *testing.T) {
	repo := &MockCategoryRepo{Categories: []models.Category{{ID: 1, Name: "Dresses"}}}
	router := newRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/categories/1/", strings.NewReader(`{"name":"Gowns"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Gowns", repo.LastSaved.Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/categories/9/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/categories/1/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Category deleted"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/categories/abc/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
