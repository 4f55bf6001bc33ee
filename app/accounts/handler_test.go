package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/judyrop/viara-backend/app/auth"
	"github.com/judyrop/viara-backend/models"
	"github.com/judyrop/viara-backend/notify"
)

// --- Fakes ---

type fakeUsers struct {
	byID   map[uint]*models.User
	nextID uint
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint]*models.User{}, nextID: 1}
}

func (f *fakeUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, models.ErrUserNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (f *fakeUsers) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := f.GetByUsername(ctx, user.Username); err == nil {
		return models.ErrDuplicateUsername
	}
	if _, err := f.GetByEmail(ctx, user.Email); err == nil {
		return models.ErrDuplicateEmail
	}
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, user *models.User) error {
	if other, err := f.GetByEmail(ctx, user.Email); err == nil && other.ID != user.ID {
		return models.ErrDuplicateEmail
	}
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUsers) SetPasswordHash(_ context.Context, user *models.User, hash string) error {
	f.byID[user.ID].PasswordHash = hash
	user.PasswordHash = hash
	return nil
}

func (f *fakeUsers) TokenFor(_ context.Context, userID uint) (string, error) {
	return "token-" + string(rune('0'+userID)), nil
}

type recordingMailer struct {
	sent []notify.Message
}

func (r *recordingMailer) Notify(_ context.Context, msg notify.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

type env struct {
	users  *fakeUsers
	mailer *recordingMailer
	tokens *ResetTokens
	router *gin.Engine
}

func newEnv(t *testing.T, principal *auth.Principal) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e := &env{
		users:  newFakeUsers(),
		mailer: &recordingMailer{},
		tokens: NewResetTokens("secret", time.Hour),
	}
	h := NewAccountsHandler(e.users, e.tokens, e.mailer, Settings{
		FrontendURL: "http://frontend.test",
		Debug:       true,
		BcryptCost:  bcrypt.MinCost,
	}, logr.Discard())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if principal != nil {
			auth.SetPrincipal(c, *principal)
		}
	})
	r.POST("/register/", h.HandleRegister)
	r.POST("/login/", h.HandleLogin)
	r.POST("/forgot-password/", h.HandleForgotPassword)
	r.POST("/reset-password/", h.HandleResetPassword)
	r.POST("/change-password/", h.HandleChangePassword)
	r.GET("/profile/", h.HandleGetProfile)
	r.PUT("/profile/", h.HandleUpdateProfile)
	e.router = r
	return e
}

func (e *env) addUser(t *testing.T, username, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: string(hash)}
	require.NoError(t, e.users.CreateUser(context.Background(), u))
	return u
}

func (e *env) post(method, path, body string) (int, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func TestHandleRegister(t *testing.T) {
	testCases := []struct {
		name               string
		body               string
		expectedStatusCode int
		expectedError      string
	}{
		{name: "Success", body: `{"username":"june","email":"june@example.com","password":"secret123","first_name":"June"}`, expectedStatusCode: http.StatusCreated},
		{name: "Missing password", body: `{"username":"june","email":"june@example.com"}`, expectedStatusCode: http.StatusBadRequest, expectedError: "Username, email, and password are required"},
		{name: "Malformed email", body: `{"username":"june","email":"june","password":"x"}`, expectedStatusCode: http.StatusBadRequest, expectedError: "Please provide a valid email address"},
		{name: "Taken username", body: `{"username":"taken","email":"new@example.com","password":"x"}`, expectedStatusCode: http.StatusBadRequest, expectedError: "Username already exists"},
		{name: "Taken email", body: `{"username":"new","email":"TAKEN@example.com","password":"x"}`, expectedStatusCode: http.StatusBadRequest, expectedError: "Email already registered"},
		{name: "Password too long", body: `{"username":"june","email":"june@example.com","password":"` + strings.Repeat("p", 80) + `"}`, expectedStatusCode: http.StatusBadRequest, expectedError: "Password must be at most 72 characters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, nil)
			e.addUser(t, "taken", "whatever")

			code, resp := e.post("POST", "/register/", tc.body)

			assert.Equal(t, tc.expectedStatusCode, code)
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, resp["error"])
				assert.Len(t, e.users.byID, 1)
				assert.Empty(t, e.mailer.sent)
				return
			}
			assert.Equal(t, "User registered successfully", resp["message"])
			assert.NotEmpty(t, resp["token"])
			user := resp["user"].(map[string]any)
			assert.Equal(t, "june", user["username"])
			assert.Equal(t, false, user["is_staff"])

			require.Len(t, e.mailer.sent, 1)
			assert.Equal(t, "june@example.com", e.mailer.sent[0].To)
			assert.Contains(t, e.mailer.sent[0].Body, "Hi June")
		})
	}
}

func TestHandleLogin(t *testing.T) {
	e := newEnv(t, nil)
	e.addUser(t, "june", "secret123")

	code, resp := e.post("POST", "/login/", `{"username":"june"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Username and password are required", resp["error"])

	code, resp = e.post("POST", "/login/", `{"username":"ghost","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", resp["error"])

	code, _ = e.post("POST", "/login/", `{"username":"june","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp = e.post("POST", "/login/", `{"username":"june","password":"secret123"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", resp["message"])
	assert.Equal(t, "token-1", resp["token"])
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t, nil)
	user := e.addUser(t, "june", "secret123")

	code, resp := e.post("POST", "/forgot-password/", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email is required", resp["error"])

	code, resp = e.post("POST", "/forgot-password/", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, forgotMessage, resp["message"])
	assert.Empty(t, e.mailer.sent)

	code, resp = e.post("POST", "/forgot-password/", `{"email":"june@example.com"}`)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, e.mailer.sent, 1)
	link := resp["dev_reset_link"].(string)
	assert.Contains(t, e.mailer.sent[0].Body, link)

	uid := EncodeUID(user.ID)
	token := strings.TrimSuffix(strings.TrimPrefix(link, "http://frontend.test/reset-password/"+uid+"/"), "/")

	testCases := []struct {
		name          string
		body          string
		expectedError string
	}{
		{name: "Missing fields", body: `{"uid":"` + uid + `"}`, expectedError: "UID, token, and new password are required"},
		{name: "Garbage uid", body: `{"uid":"!!","token":"` + token + `","new_password":"brandnew"}`, expectedError: "Invalid reset link"},
		{name: "Unknown user", body: `{"uid":"` + EncodeUID(99) + `","token":"` + token + `","new_password":"brandnew"}`, expectedError: "Invalid reset link"},
		{name: "Bad token", body: `{"uid":"` + uid + `","token":"nope","new_password":"brandnew"}`, expectedError: "Invalid or expired reset link"},
		{name: "Short password", body: `{"uid":"` + uid + `","token":"` + token + `","new_password":"abc"}`, expectedError: "Password must be at least 6 characters"},
		{name: "Long password", body: `{"uid":"` + uid + `","token":"` + token + `","new_password":"` + strings.Repeat("p", 73) + `"}`, expectedError: "Password must be at most 72 characters"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := e.post("POST", "/reset-password/", tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tc.expectedError, resp["error"])
		})
	}

	code, _ = e.post("POST", "/reset-password/", `{"uid":"`+uid+`","token":"`+token+`","new_password":"brandnew"}`)
	assert.Equal(t, http.StatusOK, code)
	stored, _ := e.users.GetByID(context.Background(), user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brandnew")))
	assert.Len(t, e.mailer.sent, 2)

	code, resp = e.post("POST", "/reset-password/", `{"uid":"`+uid+`","token":"`+token+`","new_password":"another1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired reset link", resp["error"])
}

func TestChangePasswordAndProfile(t *testing.T) {
	e := newEnv(t, &auth.Principal{UserID: 1, Username: "june"})
	e.addUser(t, "june", "secret123")
	e.addUser(t, "mark", "secret123")

	code, resp := e.post("POST", "/change-password/", `{"old_password":"secret123"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Old and new passwords are required", resp["error"])

	code, resp = e.post("POST", "/change-password/", `{"old_password":"nope","new_password":"brandnew"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Current password is incorrect", resp["error"])

	code, _ = e.post("POST", "/change-password/", `{"old_password":"secret123","new_password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = e.post("POST", "/change-password/", `{"old_password":"secret123","new_password":"`+strings.Repeat("p", 73)+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Password must be at most 72 characters", resp["error"])

	code, _ = e.post("POST", "/change-password/", `{"old_password":"secret123","new_password":"brandnew"}`)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, e.mailer.sent, 1)

	code, resp = e.post("GET", "/profile/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "june@example.com", resp["email"])

	code, resp = e.post("PUT", "/profile/", `{"phone":" 0712345678 ","address":"1 Market St"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0712345678", resp["phone"])
	assert.Equal(t, "june", resp["username"])

	code, resp = e.post("PUT", "/profile/", `{"email":"mark@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email already registered", resp["error"])

	code, _ = e.post("PUT", "/profile/", `{"email":"broken"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProfileWithoutPrincipal(t *testing.T) {
	e := newEnv(t, nil)
	code, _ := e.post("GET", "/profile/", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

type brokenUsers struct {
	*fakeUsers
}

func (brokenUsers) CreateUser(context.Context, *models.User) error {
	return errors.New("pq: connection reset by peer")
}

func TestRegisterHidesStoreErrors(t *testing.T) {
	e := newEnv(t, nil)
	h := NewAccountsHandler(brokenUsers{e.users}, e.tokens, e.mailer, Settings{BcryptCost: bcrypt.MinCost}, logr.Discard())
	r := gin.New()
	r.POST("/register/", h.HandleRegister)
	e.router = r

	code, resp := e.post("POST", "/register/", `{"username":"june","email":"june@example.com","password":"secret123"}`)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to register user", resp["error"])
	assert.Empty(t, e.mailer.sent)
}
