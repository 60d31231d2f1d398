package user

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chat-backend/internal/apperr"
	"chat-backend/internal/config"
	"chat-backend/internal/db"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn, &Account{}))
	return conn
}

func newKey(t *testing.T) (ed25519.PublicKey, string) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, base64.StdEncoding.EncodeToString(pub)
}

func TestRegisterFirstAccountIsAdmin(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	_, k1 := newKey(t)
	first, err := Register(ctx, conn, "alice", k1)
	require.NoError(t, err)
	assert.True(t, first.IsAdmin)

	_, k2 := newKey(t)
	second, err := Register(ctx, conn, "bob", k2)
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	_, k1 := newKey(t)
	_, err := Register(ctx, conn, "alice", k1)
	require.NoError(t, err)

	_, k2 := newKey(t)
	_, err = Register(ctx, conn, "alice", k2)
	assert.True(t, apperr.IsValidation(err))

	_, err = Register(ctx, conn, "carol", k1)
	assert.True(t, apperr.IsValidation(err))

	_, err = Register(ctx, conn, "  ", k2)
	assert.True(t, apperr.IsValidation(err))

	_, err = Register(ctx, conn, "dave", "!!!")
	assert.True(t, apperr.IsValidation(err))

	_, err = Register(ctx, conn, "dave", base64.StdEncoding.EncodeToString([]byte("short")))
	assert.True(t, apperr.IsValidation(err))
}

func TestFindByPublicKey(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	pub, enc := newKey(t)
	acc, err := Register(ctx, conn, "alice", enc)
	require.NoError(t, err)

	found, err := FindByPublicKey(ctx, conn, pub)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, found.ID)
	assert.Equal(t, []byte(pub), []byte(found.PublicKey))

	other, _ := newKey(t)
	_, err = FindByPublicKey(ctx, conn, other)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDecodePublicKeyURLSafe(t *testing.T) {
	pub, _ := newKey(t)
	decoded, err := DecodePublicKey(base64.URLEncoding.EncodeToString(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, decoded)
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	acc := &Account{ID: 3}
	assert.Same(t, acc, FromContext(WithAccount(context.Background(), acc)))
}
