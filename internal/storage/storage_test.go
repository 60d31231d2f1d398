package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemSaveExistsDelete(t *testing.T) {
	ctx := context.Background()
	fsys, err := NewFileSystem(t.TempDir())
	require.NoError(t, err)

	name, err := fsys.Save(ctx, "category/1/category_icon/logo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "category/1/category_icon/logo.png", name)

	ok, err := fsys.Exists(ctx, name)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(fsys.Root, filepath.FromSlash(name)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, fsys.Delete(ctx, name))
	ok, err = fsys.Exists(ctx, name)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is fine.
	assert.NoError(t, fsys.Delete(ctx, name))
}

func TestFileSystemSaveCollision(t *testing.T) {
	ctx := context.Background()
	fsys, err := NewFileSystem(t.TempDir())
	require.NoError(t, err)

	first, err := fsys.Save(ctx, "server/2/server_icons/icon.png", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := fsys.Save(ctx, "server/2/server_icons/icon.png", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "server/2/server_icons/icon_"))
	assert.True(t, strings.HasSuffix(second, ".png"))

	data, err := os.ReadFile(filepath.Join(fsys.Root, filepath.FromSlash(first)))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestFileSystemRejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	fsys, err := NewFileSystem(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "/etc/passwd", "../x.png", "a/../../x.png", "a\\b.png", "."} {
		_, err := fsys.Save(ctx, name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, name)
		assert.ErrorIs(t, fsys.Delete(ctx, name), ErrInvalidPath, name)
	}
}

func TestUploadPaths(t *testing.T) {
	assert.Equal(t, "category/3/category_icon/logo.png", CategoryIconPath(3, "logo.png"))
	assert.Equal(t, "server/7/server_icons/i.gif", ChannelIconPath(7, "i.gif"))
	assert.Equal(t, "server/7/server_banners/b.jpg", ChannelBannerPath(7, "b.jpg"))
	assert.Equal(t, "server/7/server_banners/b.jpg", ChannelBannerPath(7, "../../etc/b.jpg"))
	assert.Equal(t, "server/7/server_icons/c.png", ChannelIconPath(7, `C:\tmp\c.png`))
	assert.Equal(t, "category/1/category_icon/upload", CategoryIconPath(1, ""))
}

func TestUploadReader(t *testing.T) {
	var nilUpload *Upload
	assert.Nil(t, nilUpload.Reader())

	up := &Upload{Filename: "a.png", Data: []byte("abc")}
	data, err := io.ReadAll(up.Reader())
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	// Each call starts from the beginning.
	data, _ = io.ReadAll(up.Reader())
	assert.Equal(t, "abc", string(data))
}
