package models

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

func (r *UsersRepository) GetByID(ctx context.Context, id uint) (*User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.first(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

// CreateUser inserts the user after checking username and email are free.
func (r *UsersRepository) CreateUser(ctx context.Context, user *User) error {
	if taken, err := r.exists(ctx, "username = ?", user.Username); err != nil {
		return err
	} else if taken {
		return ErrDuplicateUsername
	}
	if err := r.ensureEmailFree(ctx, user.Email, 0); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UsersRepository) UpdateProfile(ctx context.Context, user *User) error {
	if err := r.ensureEmailFree(ctx, user.Email, user.ID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(user).Select("FirstName", "LastName", "Email", "Phone", "Address").Updates(user).Error
}

func (r *UsersRepository) SetPasswordHash(ctx context.Context, user *User, hash string) error {
	if err := r.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

// TokenFor returns the user's bearer key, issuing one if none exists.
func (r *UsersRepository) TokenFor(ctx context.Context, userID uint) (string, error) {
	// token stays keyless: a non-zero primary key joins the lookup.
	var token AuthToken
	if err := r.db.WithContext(ctx).
		Where(AuthToken{UserID: userID}).
		Attrs(AuthToken{Key: strings.ReplaceAll(uuid.NewString(), "-", "")}).
		FirstOrCreate(&token).Error; err != nil {
		return "", err
	}
	return token.Key, nil
}

// UserForToken resolves a bearer key to its user.
func (r *UsersRepository) UserForToken(ctx context.Context, key string) (*User, error) {
	var token AuthToken
	if err := r.db.WithContext(ctx).Preload("User").Where("token_key = ?", key).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &token.User, nil
}

func (r *UsersRepository) first(ctx context.Context, query string, args ...any) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UsersRepository) ensureEmailFree(ctx context.Context, email string, exceptID uint) error {
	taken, err := r.exists(ctx, "LOWER(email) = ? AND id <> ?", strings.ToLower(email), exceptID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateEmail
	}
	return nil
}
