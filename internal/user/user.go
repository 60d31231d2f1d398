package user

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"chat-backend/internal/apperr"
)

// DecodePublicKey accepts standard or URL-safe base64 and checks the key size.
func DecodePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Try URL-safe base64 if standard fails
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, apperr.FieldValidation("public_key", "must be base64 encoded")
		}
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, apperr.FieldValidation("public_key", "must be a %d byte ed25519 key", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// Register creates an account. The first account becomes an administrator.
func Register(ctx context.Context, db *gorm.DB, username, publicKey string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.FieldValidation("username", "this field is required")
	}
	if len(username) > 150 {
		return nil, apperr.FieldValidation("username", "ensure this field has no more than 150 characters")
	}
	key, err := DecodePublicKey(publicKey)
	if err != nil {
		return nil, err
	}

	var acc *Account
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&Account{}).
			Where("username = ? OR public_key = ?", username, PublicKeyType(key)).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return apperr.Validation("an account with this username or public key already exists")
		}

		var total int64
		if err := tx.Model(&Account{}).Count(&total).Error; err != nil {
			return err
		}

		acc = &Account{
			Username:  username,
			PublicKey: PublicKeyType(key),
			IsAdmin:   total == 0,
		}
		return tx.Create(acc).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Registered account %q (id=%d, admin=%t)", acc.Username, acc.ID, acc.IsAdmin)
	return acc, nil
}

// FindByPublicKey returns the account owning key.
func FindByPublicKey(ctx context.Context, db *gorm.DB, key ed25519.PublicKey) (*Account, error) {
	var acc Account
	err := db.WithContext(ctx).Where("public_key = ?", PublicKeyType(key)).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("account", "with this key")
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acc, nil
}

type contextKey string

const accountContextKey contextKey = "account"

// WithAccount stores the authenticated account in ctx.
func WithAccount(ctx context.Context, acc *Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acc)
}

// FromContext returns the authenticated account, or nil for anonymous requests.
func FromContext(ctx context.Context) *Account {
	acc, ok := ctx.Value(accountContextKey).(*Account)
	if !ok {
		return nil
	}
	return acc
}
