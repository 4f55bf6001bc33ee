// Package auth resolves bearer credentials into a Principal and guards routes.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/judyrop/viara-backend/models"
)

const principalKey = "principal"

// Principal is the authenticated caller. Handlers pass it explicitly into
// service calls.
type Principal struct {
	UserID   uint
	Username string
	Email    string
	IsAdmin  bool
}

func PrincipalFor(u *models.User) Principal {
	return Principal{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin(),
	}
}

type UserStore interface {
	UserForToken(ctx context.Context, key string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// IDTokenVerifier checks a third-party ID token and returns its verified email.
type IDTokenVerifier interface {
	VerifyEmail(ctx context.Context, rawIDToken string) (string, error)
}

type Authenticator struct {
	users UserStore
	sso   IDTokenVerifier
	log   logr.Logger
}

// NewAuthenticator builds the middleware factory. sso may be nil.
func NewAuthenticator(users UserStore, sso IDTokenVerifier, log logr.Logger) *Authenticator {
	return &Authenticator{users: users, sso: sso, log: log}
}

// RequireAuth rejects requests without a valid bearer credential.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			return
		}
		principal, err := a.resolve(c.Request.Context(), raw)
		if err != nil {
			if !errors.Is(err, models.ErrUserNotFound) {
				a.log.Error(err, "failed to resolve bearer token")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			return
		}
		if !p.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
			return
		}
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// SetPrincipal stores p on the context. Used by tests that bypass the middleware.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

func (a *Authenticator) resolve(ctx context.Context, raw string) (Principal, error) {
	user, err := a.users.UserForToken(ctx, raw)
	if err == nil {
		return PrincipalFor(user), nil
	}
	if !errors.Is(err, models.ErrUserNotFound) || a.sso == nil {
		return Principal{}, err
	}

	// Not a local key: try it as an admin single sign-on ID token.
	email, verr := a.sso.VerifyEmail(ctx, raw)
	if verr != nil {
		a.log.V(1).Info("id token rejected", "reason", verr.Error())
		return Principal{}, models.ErrUserNotFound
	}
	user, err = a.users.GetByEmail(ctx, email)
	if err != nil {
		return Principal{}, err
	}
	if !user.IsAdmin() {
		return Principal{}, models.ErrUserNotFound
	}
	return PrincipalFor(user), nil
}

// bearer extracts the credential from "Bearer <x>" or "Token <x>".
func bearer(header string) (string, bool) {
	for _, prefix := range []string{"Bearer ", "Token "} {
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			token := strings.TrimSpace(header[len(prefix):])
			return token, token != ""
		}
	}
	return "", false
}
