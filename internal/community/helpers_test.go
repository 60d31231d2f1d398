package community

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chat-backend/internal/cache"
	"chat-backend/internal/config"
	"chat-backend/internal/db"
	"chat-backend/internal/storage"
	"chat-backend/internal/user"
)

// recordingStorage wraps a real file store, counting deletes and optionally
// failing them.
type recordingStorage struct {
	*storage.FileSystem

	mu         sync.Mutex
	deletes    []string
	failDelete bool
}

var errStorageDown = errors.New("storage unavailable")

func (s *recordingStorage) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, name)
	fail := s.failDelete
	s.mu.Unlock()
	if fail {
		return errStorageDown
	}
	return s.FileSystem.Delete(ctx, name)
}

func (s *recordingStorage) deleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deletes)
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	files *recordingStorage
	svc   *Service
	admin *user.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "test.db") + "?_pragma=foreign_keys(1)",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn, append([]interface{}{&user.Account{}}, Models()...)...))

	fs, err := storage.NewFileSystem(filepath.Join(dir, "media"))
	require.NoError(t, err)
	files := &recordingStorage{FileSystem: fs}

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		db:    conn,
		files: files,
		svc:   NewService(conn, files, cache.NewLocalLocker()),
	}
	f.admin = f.account("admin", true)
	return f
}

func (f *fixture) account(name string, admin bool) *user.Account {
	f.t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(f.t, err)
	acc := &user.Account{Username: name, PublicKey: user.PublicKeyType(key), IsAdmin: admin}
	require.NoError(f.t, f.db.Create(acc).Error)
	return acc
}

func (f *fixture) category(name string, icon *storage.Upload) *Category {
	f.t.Helper()
	c, err := f.svc.CreateCategory(f.ctx, f.admin, CategoryInput{Name: &name, Icon: icon})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) server(name string, owner *user.Account, categoryID uint) *Server {
	f.t.Helper()
	srv, err := f.svc.CreateServer(f.ctx, owner, ServerInput{Name: &name, CategoryID: &categoryID})
	require.NoError(f.t, err)
	return srv
}

func (f *fixture) channel(name string, owner *user.Account, serverID uint, icon, banner *storage.Upload) *Channel {
	f.t.Helper()
	ch, err := f.svc.CreateChannel(f.ctx, owner, ChannelInput{Name: &name, ServerID: &serverID, Icon: icon, Banner: banner})
	require.NoError(f.t, err)
	return ch
}

func (f *fixture) exists(path string) bool {
	f.t.Helper()
	ok, err := f.files.Exists(f.ctx, path)
	require.NoError(f.t, err)
	return ok
}

func pngUpload(t *testing.T, name string, w, h int) *storage.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &storage.Upload{Filename: name, Data: buf.Bytes()}
}

func readFile(t *testing.T, fsys *storage.FileSystem, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fsys.Root, filepath.FromSlash(path)))
	require.NoError(t, err)
	return data
}

func strPtr(s string) *string { return &s }
