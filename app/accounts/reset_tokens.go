package accounts

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/judyrop/viara-backend/models"
)

const resetTokenType = "reset_password"

var ErrInvalidResetToken = errors.New("invalid or expired reset link")

type resetClaims struct {
	Type        string `json:"type"`
	Fingerprint string `json:"pwd"`
	jwt.RegisteredClaims
}

// ResetTokens issues and checks password-reset tokens. A token embeds a
// fingerprint of the password hash it was issued against, so it stops
// working as soon as the password changes.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewResetTokens(secret string, ttl time.Duration) *ResetTokens {
	return &ResetTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *ResetTokens) Issue(u *models.User) (string, error) {
	now := t.now()
	claims := resetClaims{
		Type:        resetTokenType,
		Fingerprint: fingerprint(u.PasswordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Check validates token for u.
func (t *ResetTokens) Check(u *models.User, token string) error {
	var claims resetClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return ErrInvalidResetToken
	}
	if claims.Type != resetTokenType ||
		claims.Subject != strconv.FormatUint(uint64(u.ID), 10) ||
		claims.Fingerprint != fingerprint(u.PasswordHash) {
		return ErrInvalidResetToken
	}
	return nil
}

// EncodeUID is the opaque user reference placed in reset links.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid uid")
	}
	return uint(id), nil
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
