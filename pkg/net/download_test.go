package net

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.csv":
			_, _ = w.Write([]byte("a,b\n1,2\n"))
		case "/missing.csv":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()

	dest := filepath.Join(dir, "data.csv")
	require.NoError(t, Download(srv.URL+"/data.csv", dest))
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(b))

	err = Download(srv.URL+"/missing.csv", filepath.Join(dir, "m.csv"))
	assert.ErrorIs(t, err, ErrURLNotFound)

	err = Download(srv.URL+"/boom", filepath.Join(dir, "e.csv"))
	assert.Error(t, err)
}
