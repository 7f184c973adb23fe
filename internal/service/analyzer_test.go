package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example/vision-batch/internal/vision"
)

func TestImageMIMEType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a.jpg":  "image/jpeg",
		"a.JPEG": "image/jpeg",
		"a.png":  "image/png",
		"a.gif":  "image/gif",
		"a.webp": "image/webp",
		"a":      "application/octet-stream",
	}
	for path, want := range tests {
		assert.Equal(t, want, imageMIMEType(path), path)
	}
}

func TestVisionAnalyzer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dog.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg bytes"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "jpeg bytes", string(body))
		_, _ = io.WriteString(w, `{"requestId":"1"}`)
	}))
	defer srv.Close()

	a := NewVisionAnalyzer(vision.NewClient(vision.Options{Endpoint: srv.URL, APIKey: "k"}))

	got, err := a.AnalyzeImage(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, `{"requestId":"1"}`, got)

	_, err = a.AnalyzeImage(t.Context(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
}
