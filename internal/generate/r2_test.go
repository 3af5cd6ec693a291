package generate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/config"
)

func TestR2Uploader_PutsObjectAndBuildsURL(t *testing.T) {
	var (
		gotMethod      string
		gotPath        string
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	uploader := NewR2Uploader(&config.R2Config{
		AccessKey: "test-access",
		SecretKey: "test-secret",
		Bucket:    "nanobanana-images",
		Endpoint:  srv.URL,
		PublicURL: "https://img.example.com",
	}, zap.NewNop())

	url, err := uploader.Upload(context.Background(), []byte("png-bytes"), "gen_abc.png")
	require.NoError(t, err)

	assert.Equal(t, "https://img.example.com/images/gen_abc.png", url)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/nanobanana-images/images/gen_abc.png", gotPath)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("png-bytes"), gotBody)
}

func TestR2Uploader_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	uploader := NewR2Uploader(&config.R2Config{
		AccessKey: "test-access",
		SecretKey: "test-secret",
		Bucket:    "nanobanana-images",
		Endpoint:  srv.URL,
		PublicURL: "https://img.example.com",
	}, zap.NewNop())

	_, err := uploader.Upload(context.Background(), []byte("png-bytes"), "gen_abc.png")
	assert.Error(t, err)
}

func TestR2PublicBase(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.R2Config
		want string
	}{
		{
			name: "explicit public url wins",
			cfg:  config.R2Config{Endpoint: "https://acct.r2.cloudflarestorage.com", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com",
		},
		{
			name: "derived from endpoint",
			cfg:  config.R2Config{Endpoint: "https://acct.r2.cloudflarestorage.com"},
			want: "https://acct.r2.dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r2PublicBase(&tt.cfg))
		})
	}
}
