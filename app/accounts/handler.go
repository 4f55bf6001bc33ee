package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"golang.org/x/crypto/bcrypt"

	"github.com/judyrop/viara-backend/app/api"
	"github.com/judyrop/viara-backend/app/auth"
	"github.com/judyrop/viara-backend/models"
	"github.com/judyrop/viara-backend/notify"
)

const (
	minPasswordLength = 6
	// bcrypt rejects longer input.
	maxPasswordLength = 72
	forgotMessage     = "If this email is registered, you will receive a password reset link"
)

type UserResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

type ProfileResponse struct {
	UserResponse
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UserStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	SetPasswordHash(ctx context.Context, user *models.User, hash string) error
	TokenFor(ctx context.Context, userID uint) (string, error)
}

type Settings struct {
	FrontendURL string
	Debug       bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type AccountsHandler struct {
	users    UserStore
	tokens   *ResetTokens
	mailer   notify.Notifier
	settings Settings
	log      logr.Logger
}

func NewAccountsHandler(users UserStore, tokens *ResetTokens, mailer notify.Notifier, settings Settings, log logr.Logger) *AccountsHandler {
	if settings.BcryptCost == 0 {
		settings.BcryptCost = bcrypt.DefaultCost
	}
	return &AccountsHandler{
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		settings: settings,
		log:      log,
	}
}

func toUser(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

func toProfile(u *models.User) ProfileResponse {
	return ProfileResponse{UserResponse: toUser(u), Phone: u.Phone, Address: u.Address}
}

func (h *AccountsHandler) HandleRegister(c *gin.Context) {
	var input struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if input.Username == "" || input.Email == "" || input.Password == "" {
		api.Error(c, http.StatusBadRequest, "Username, email, and password are required")
		return
	}
	if !api.LooksLikeEmail(input.Email) {
		api.Error(c, http.StatusBadRequest, "Please provide a valid email address")
		return
	}

	if len(input.Password) > maxPasswordLength {
		api.Error(c, http.StatusBadRequest, tooLongMessage)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), h.settings.BcryptCost)
	if err != nil {
		h.log.Error(err, "failed to hash password")
		api.Error(c, http.StatusInternalServerError, "Failed to register user")
		return
	}
	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}

	ctx := c.Request.Context()
	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) || errors.Is(err, models.ErrDuplicateEmail) {
			api.Fail(c, err)
			return
		}
		h.log.Error(err, "failed to create user", "username", user.Username)
		api.Error(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	token, err := h.users.TokenFor(ctx, user.ID)
	if err != nil {
		h.log.Error(err, "failed to issue token", "user", user.ID)
		api.Error(c, http.StatusInternalServerError, "Failed to register user")
		return
	}
	h.log.Info("user registered", "user", user.ID, "username", user.Username)

	notify.Send(ctx, h.mailer, h.log, notify.Message{
		To:      user.Email,
		Subject: "Welcome to VIARA!",
		Body: fmt.Sprintf("Hi %s,\n\nWelcome to VIARA Store! Your account has been created successfully.\n\nUsername: %s\nEmail: %s\n\nThank you for joining us!",
			displayName(user), user.Username, user.Email),
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    toUser(user),
	})
}

func (h *AccountsHandler) HandleLogin(c *gin.Context) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Username == "" || input.Password == "" {
		api.Error(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByUsername(ctx, input.Username)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		h.log.Error(err, "failed to look up user")
		api.Error(c, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		api.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.users.TokenFor(ctx, user.ID)
	if err != nil {
		h.log.Error(err, "failed to issue token", "user", user.ID)
		api.Error(c, http.StatusInternalServerError, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    toUser(user),
	})
}

// HandleForgotPassword answers the same way whether or not the email is
// registered, and only mails a link when it is.
func (h *AccountsHandler) HandleForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		api.Error(c, http.StatusBadRequest, "Email is required")
		return
	}

	ctx := c.Request.Context()
	response := gin.H{"message": forgotMessage}

	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			h.log.Error(err, "failed to look up user for password reset")
		}
		c.JSON(http.StatusOK, response)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error(err, "failed to issue reset token", "user", user.ID)
		c.JSON(http.StatusOK, response)
		return
	}
	link := fmt.Sprintf("%s/reset-password/%s/%s/", h.settings.FrontendURL, EncodeUID(user.ID), token)

	notify.Send(ctx, h.mailer, h.log, notify.Message{
		To:      user.Email,
		Subject: "Password Reset Request - VIARA Store",
		Body: fmt.Sprintf("Hi %s,\n\nYou requested to reset your password for your VIARA account.\n\n"+
			"Click the link below to reset your password:\n%s\n\n"+
			"If you didn't request this, please ignore this email.\n\nBest regards,\nVIARA Store Team",
			displayName(user), link),
	})

	if h.settings.Debug {
		response["dev_reset_link"] = link
	}
	c.JSON(http.StatusOK, response)
}

func (h *AccountsHandler) HandleResetPassword(c *gin.Context) {
	var input struct {
		UID         string `json:"uid"`
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.UID == "" || input.Token == "" || input.NewPassword == "" {
		api.Error(c, http.StatusBadRequest, "UID, token, and new password are required")
		return
	}

	ctx := c.Request.Context()
	id, err := DecodeUID(input.UID)
	if err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid reset link")
		return
	}
	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			h.log.Error(err, "failed to look up user for password reset")
		}
		api.Error(c, http.StatusBadRequest, "Invalid reset link")
		return
	}
	if err := h.tokens.Check(user, input.Token); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid or expired reset link")
		return
	}
	if msg := checkNewPassword(input.NewPassword); msg != "" {
		api.Error(c, http.StatusBadRequest, msg)
		return
	}

	if !h.setPassword(c, user, input.NewPassword) {
		return
	}
	notify.Send(ctx, h.mailer, h.log, passwordChangedEmail(user, "Password Changed Successfully - VIARA"))

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful! You can now login with your new password."})
}

func (h *AccountsHandler) HandleChangePassword(c *gin.Context) {
	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.OldPassword == "" || input.NewPassword == "" {
		api.Error(c, http.StatusBadRequest, "Old and new passwords are required")
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)) != nil {
		api.Error(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if msg := checkNewPassword(input.NewPassword); msg != "" {
		api.Error(c, http.StatusBadRequest, msg)
		return
	}

	if !h.setPassword(c, user, input.NewPassword) {
		return
	}
	notify.Send(c.Request.Context(), h.mailer, h.log, passwordChangedEmail(user, "Password Changed - VIARA"))

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully!"})
}

func (h *AccountsHandler) HandleGetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toProfile(user))
}

func (h *AccountsHandler) HandleUpdateProfile(c *gin.Context) {
	var input struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
		Address   *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		api.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if !api.LooksLikeEmail(email) {
			api.Error(c, http.StatusBadRequest, "Please provide a valid email address")
			return
		}
		user.Email = email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		user.Address = *input.Address
	}

	if err := h.users.UpdateProfile(c.Request.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			api.Fail(c, err)
			return
		}
		h.log.Error(err, "failed to update profile", "user", user.ID)
		api.Error(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, toProfile(user))
}

func (h *AccountsHandler) currentUser(c *gin.Context) (*models.User, bool) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		api.Error(c, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	user, err := h.users.GetByID(c.Request.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			api.Error(c, http.StatusUnauthorized, "Authentication required")
			return nil, false
		}
		h.log.Error(err, "failed to load user", "user", p.UserID)
		api.Error(c, http.StatusInternalServerError, "Failed to load user")
		return nil, false
	}
	return user, true
}

var tooLongMessage = fmt.Sprintf("Password must be at most %d characters", maxPasswordLength)

func checkNewPassword(pw string) string {
	switch {
	case len(pw) < minPasswordLength:
		return fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	case len(pw) > maxPasswordLength:
		return tooLongMessage
	}
	return ""
}

func (h *AccountsHandler) setPassword(c *gin.Context, user *models.User, password string) bool {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.settings.BcryptCost)
	if err != nil {
		h.log.Error(err, "failed to hash password", "user", user.ID)
		api.Error(c, http.StatusInternalServerError, "Failed to hash new password")
		return false
	}
	if err := h.users.SetPasswordHash(c.Request.Context(), user, string(hash)); err != nil {
		h.log.Error(err, "failed to update password", "user", user.ID)
		api.Error(c, http.StatusInternalServerError, "Failed to update password")
		return false
	}
	h.log.Info("password changed", "user", user.ID)
	return true
}

func passwordChangedEmail(u *models.User, subject string) notify.Message {
	return notify.Message{
		To:      u.Email,
		Subject: subject,
		Body: fmt.Sprintf("Hi %s,\n\nYour password has been changed successfully.\n\n"+
			"If you did not make this change, please contact us immediately.\n\nBest regards,\nVIARA Store Team",
			displayName(u)),
	}
}

func displayName(u *models.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
