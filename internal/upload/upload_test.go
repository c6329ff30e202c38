package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// multipartRequest builds a POST request with one file part.
func multipartRequest(t *testing.T, field, filename, contentType string, body []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition",
		`form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestImage(t *testing.T) {
	req := multipartRequest(t, "image", "sunset.jpg", "image/jpeg", []byte("jpegdata"))

	up, err := Image(req, "image")
	require.NoError(t, err)
	require.NotNil(t, up)
	require.Equal(t, "sunset.jpg", up.Filename)
	require.Equal(t, "image/jpeg", up.ContentType)
	require.Equal(t, int64(8), up.Size)
}

func TestImageMissingFieldIsOptional(t *testing.T) {
	req := multipartRequest(t, "other", "x.jpg", "image/jpeg", []byte("data"))

	up, err := Image(req, "image")
	require.NoError(t, err)
	require.Nil(t, up)
}

func TestImageRejectsExtension(t *testing.T) {
	req := multipartRequest(t, "image", "script.gif", "image/gif", []byte("gifdata"))

	_, err := Image(req, "image")
	require.ErrorIs(t, err, ErrRejected)
}

func TestImageRejectsContentTypeMismatch(t *testing.T) {
	req := multipartRequest(t, "image", "fake.jpg", "application/octet-stream", []byte("notanimage"))

	_, err := Image(req, "image")
	require.ErrorIs(t, err, ErrRejected)
}

func TestImageRejectsOversize(t *testing.T) {
	req := multipartRequest(t, "image", "huge.jpg", "image/jpeg",
		bytes.Repeat([]byte("x"), MaxImageSize+1))

	_, err := Image(req, "image")
	require.ErrorIs(t, err, ErrRejected)
}

func TestMarkdown(t *testing.T) {
	req := multipartRequest(t, "file", "My Post.md", "text/markdown", []byte("# Title\n\nBody."))

	name, content, err := Markdown(req, "file")
	require.NoError(t, err)
	require.Equal(t, "My Post.md", name)
	require.Equal(t, "# Title\n\nBody.", string(content))
}

func TestMarkdownRequired(t *testing.T) {
	req := multipartRequest(t, "other", "x.md", "text/markdown", []byte("body"))

	_, _, err := Markdown(req, "file")
	require.ErrorIs(t, err, ErrRejected)
}

func TestMarkdownRejectsExtension(t *testing.T) {
	req := multipartRequest(t, "file", "notes.txt", "text/plain", []byte("body"))

	_, _, err := Markdown(req, "file")
	require.ErrorIs(t, err, ErrRejected)
	require.True(t, strings.Contains(err.Error(), ".md"))
}
