package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinecompose-server/modules/common/config"
)

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(&config.Config{
		SupabaseURL:           srv.URL + "/",
		SupabaseServiceKey:    "service-key",
		SupabaseStorageBucket: "renders",
	})

	err := c.Upload(context.Background(), "2026/10/a.webp", []byte("webp"), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/object/renders/2026/10/a.webp", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "image/webp", gotType)
	assert.Equal(t, []byte("webp"), gotBody)
}

func TestUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(&config.Config{SupabaseURL: srv.URL, SupabaseStorageBucket: "missing"})

	err := c.Upload(context.Background(), "a.webp", []byte("x"), "image/webp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
