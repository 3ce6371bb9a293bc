package validation

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
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

func TestValidateFileAcceptsPNG(t *testing.T) {
	mime, err := ValidateFile(fileHeader(t, "me.png", pngHeader), AvatarConstraints)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
}

func TestValidateFileSniffsContent(t *testing.T) {
	_, err := ValidateFile(fileHeader(t, "me.png", []byte("<html><body>hi</body></html>")), AvatarConstraints)
	assert.ErrorContains(t, err, "invalid file type")
}

func TestValidateFileRejectsExtension(t *testing.T) {
	_, err := ValidateFile(fileHeader(t, "me.gif", pngHeader), AvatarConstraints)
	assert.ErrorContains(t, err, "invalid file extension")
}

func TestValidateFileRejectsOversize(t *testing.T) {
	small := AvatarConstraints
	small.MaxSize = 8
	_, err := ValidateFile(fileHeader(t, "me.png", pngHeader), small)
	assert.ErrorContains(t, err, "file too large")
}
