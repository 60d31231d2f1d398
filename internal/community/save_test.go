package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-backend/internal/apperr"
	"chat-backend/internal/storage"
)

func TestCategoryIconReplacementDeletesOldFile(t *testing.T) {
	f := newFixture(t)
	c := f.category("Gaming", pngUpload(t, "first.png", 20, 20))
	oldIcon := c.Icon
	require.True(t, f.exists(oldIcon))
	assert.Equal(t, "category/1/category_icon/first.png", oldIcon)

	updated, err := f.svc.UpdateCategory(f.ctx, f.admin, c.ID, CategoryInput{Icon: pngUpload(t, "second.png", 30, 30)})
	require.NoError(t, err)

	assert.NotEqual(t, oldIcon, updated.Icon)
	assert.False(t, f.exists(oldIcon))
	assert.True(t, f.exists(updated.Icon))
	assert.Equal(t, []string{oldIcon}, f.files.deletes)
}

func TestCategoryIconSameNameGetsNewPath(t *testing.T) {
	f := newFixture(t)
	c := f.category("Music", pngUpload(t, "icon.png", 10, 10))

	replacement := pngUpload(t, "icon.png", 12, 12)
	updated, err := f.svc.UpdateCategory(f.ctx, f.admin, c.ID, CategoryInput{Icon: replacement})
	require.NoError(t, err)

	assert.NotEqual(t, c.Icon, updated.Icon)
	assert.False(t, f.exists(c.Icon))
	assert.Equal(t, replacement.Data, readFile(t, f.files.FileSystem, updated.Icon))
}

func TestCategoryUnchangedIconDeletesNothing(t *testing.T) {
	f := newFixture(t)
	c := f.category("Gaming", pngUpload(t, "icon.png", 20, 20))

	updated, err := f.svc.UpdateCategory(f.ctx, f.admin, c.ID, CategoryInput{
		Name:        strPtr("Games"),
		Description: strPtr("Everything about games"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Games", updated.Name)
	assert.Equal(t, c.Icon, updated.Icon)
	assert.True(t, f.exists(c.Icon))
	assert.Zero(t, f.files.deleteCount())
}

func TestCategoryClearIconDeletesFile(t *testing.T) {
	f := newFixture(t)
	c := f.category("Gaming", pngUpload(t, "icon.png", 20, 20))

	updated, err := f.svc.UpdateCategory(f.ctx, f.admin, c.ID, CategoryInput{ClearIcon: true})
	require.NoError(t, err)

	assert.Empty(t, updated.Icon)
	assert.False(t, f.exists(c.Icon))
}

func TestUpdateMissingRecordIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateCategory(f.ctx, f.admin, 42, CategoryInput{Name: strPtr("x")})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 404, apperr.Status(err))

	_, err = f.svc.UpdateChannel(f.ctx, f.admin, 42, ChannelInput{Name: strPtr("x")})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// The upload staged for a missing record does not stay behind.
	_, err = f.svc.UpdateCategory(f.ctx, f.admin, 42, CategoryInput{Icon: pngUpload(t, "icon.png", 5, 5)})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, f.exists("category/42/category_icon/icon.png"))
}

func TestChannelIconAndBannerReplacement(t *testing.T) {
	f := newFixture(t)
	cat := f.category("Gaming", nil)
	srv := f.server("Lobby", f.admin, cat.ID)
	ch := f.channel("general", f.admin, srv.ID, pngUpload(t, "icon.png", 70, 70), pngUpload(t, "banner.png", 400, 100))

	assert.Equal(t, "server/1/server_icons/icon.png", ch.Icon)
	assert.Equal(t, "server/1/server_banners/banner.png", ch.Banner)

	updated, err := f.svc.UpdateChannel(f.ctx, f.admin, ch.ID, ChannelInput{Banner: pngUpload(t, "wide.PNG", 300, 80)})
	require.NoError(t, err)

	assert.Equal(t, ch.Icon, updated.Icon)
	assert.True(t, f.exists(ch.Icon))
	assert.False(t, f.exists(ch.Banner))
	assert.True(t, f.exists(updated.Banner))
	assert.Equal(t, []string{ch.Banner}, f.files.deletes)
}

func TestRejectedUploadKeepsPreviousFile(t *testing.T) {
	f := newFixture(t)
	cat := f.category("Gaming", nil)
	srv := f.server("Lobby", f.admin, cat.ID)
	ch := f.channel("general", f.admin, srv.ID, pngUpload(t, "icon.png", 40, 40), nil)

	tests := []struct {
		name    string
		in      ChannelInput
		message string
	}{
		{
			name:    "oversized icon",
			in:      ChannelInput{Icon: pngUpload(t, "big.png", 71, 20)},
			message: "Icon image should be less than or equal to 70x70 pixels - size you uploaded : 71x20.",
		},
		{
			name:    "bad extension",
			in:      ChannelInput{Icon: pngUpload(t, "icon.webp", 10, 10)},
			message: "Unsupported file extension. Only .jpg, .jpeg, .png, .gif are allowed.",
		},
		{
			name:    "not an image",
			in:      ChannelInput{Banner: &storage.Upload{Filename: "banner.png", Data: []byte("plain text")}},
			message: "Upload a valid image.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateChannel(f.ctx, f.admin, ch.ID, tt.in)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Contains(t, err.Error(), tt.message)

			assert.True(t, f.exists(ch.Icon))
			got, err := f.svc.GetChannel(f.ctx, ch.ID)
			require.NoError(t, err)
			assert.Equal(t, ch.Icon, got.Icon)
		})
	}
	assert.Zero(t, f.files.deleteCount())
}

func TestCategoryIconAcceptsAnyFile(t *testing.T) {
	f := newFixture(t)
	svg := &storage.Upload{Filename: "logo.svg", Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)}
	c := f.category("Gaming", svg)

	require.NotEmpty(t, c.Icon)
	assert.Equal(t, svg.Data, readFile(t, f.files.FileSystem, c.Icon))
}

func TestFailedReplacementDeleteAbortsUpdate(t *testing.T) {
	f := newFixture(t)
	c := f.category("Gaming", pngUpload(t, "icon.png", 20, 20))
	f.files.failDelete = true

	_, err := f.svc.UpdateCategory(f.ctx, f.admin, c.ID, CategoryInput{Icon: pngUpload(t, "new.png", 20, 20)})
	require.ErrorIs(t, err, errStorageDown)

	got, err := f.svc.GetCategory(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Icon, got.Icon)
	assert.True(t, f.exists(c.Icon))
}

func TestCategoryWritesRequireAdmin(t *testing.T) {
	f := newFixture(t)
	member := f.account("member", false)

	_, err := f.svc.CreateCategory(f.ctx, member, CategoryInput{Name: strPtr("Gaming")})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = f.svc.CreateCategory(f.ctx, nil, CategoryInput{Name: strPtr("Gaming")})
	assert.ErrorIs(t, err, apperr.ErrAuthenticationFailed)

	_, err = f.svc.CreateCategory(f.ctx, f.admin, CategoryInput{})
	assert.True(t, apperr.IsValidation(err))
}
