package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamx/teamfinder/internal/apperr"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Save(_ context.Context, path, _ string, body io.Reader) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *memoryStorage) URL(_ context.Context, path string) (string, error) {
	return "https://cdn.example.com/" + path + "?signed=1", nil
}

func upload(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["avatar"][0]
}

func pngUpload(t *testing.T) *multipart.FileHeader {
	return upload(t, "me.PNG", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
}

func TestAvatarReplaceKeepsOneObject(t *testing.T) {
	f := newFixture(t)
	store := newMemoryStorage()
	s := newProfileService(t, f, store)
	ctx := context.Background()
	a := f.signup(t, "a@example.com", "hunter22").User

	p, err := s.Upsert(ctx, a.ID, profileInput("a@college.edu"))
	require.NoError(t, err)
	assert.Empty(t, p.AvatarURL)

	first, err := s.SetAvatar(ctx, p.ID, a.ID, pngUpload(t))
	require.NoError(t, err)
	assert.Contains(t, first.AvatarURL, "https://cdn.example.com/public/avatars/")
	assert.Contains(t, first.AvatarURL, ".png")

	second, err := s.SetAvatar(ctx, p.ID, a.ID, pngUpload(t))
	require.NoError(t, err)
	assert.NotEqual(t, first.AvatarURL, second.AvatarURL)
	assert.Len(t, store.objects, 1)

	files, err := f.files.FilesByType(ctx, "profile", p.ID, "avatar")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "image/png", files[0].MimeType)

	_, err = s.DeleteAvatar(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, store.objects)

	_, err = s.DeleteAvatar(ctx, p.ID, a.ID)
	assert.ErrorIs(t, err, ErrAvatarNotFound)
}

func TestAvatarRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	store := newMemoryStorage()
	s := newProfileService(t, f, store)
	ctx := context.Background()
	a := f.signup(t, "a@example.com", "hunter22").User

	p, err := s.Upsert(ctx, a.ID, profileInput("a@college.edu"))
	require.NoError(t, err)

	_, err = s.SetAvatar(ctx, p.ID, a.ID, upload(t, "me.png", []byte("plain text pretending")))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Contains(t, e.Fields["avatar"], "invalid file type")
	assert.Empty(t, store.objects)
}

func TestAvatarStorageFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	store := newMemoryStorage()
	store.saveErr = errors.New("s3 unavailable")
	s := newProfileService(t, f, store)
	ctx := context.Background()
	a := f.signup(t, "a@example.com", "hunter22").User

	p, err := s.Upsert(ctx, a.ID, profileInput("a@college.edu"))
	require.NoError(t, err)

	_, err = s.SetAvatar(ctx, p.ID, a.ID, pngUpload(t))
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestAvatarDisabledWithoutStorage(t *testing.T) {
	f := newFixture(t)
	s := newProfileService(t, f, nil)
	ctx := context.Background()
	a := f.signup(t, "a@example.com", "hunter22").User

	p, err := s.Upsert(ctx, a.ID, profileInput("a@college.edu"))
	require.NoError(t, err)

	_, err = s.SetAvatar(ctx, p.ID, a.ID, pngUpload(t))
	assert.ErrorIs(t, err, ErrAvatarsDisabled)
}
