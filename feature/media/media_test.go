package media_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tenant-bootstrapper/core/api/apitest"
	"tenant-bootstrapper/core/storage/mocks"
	"tenant-bootstrapper/feature/media"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func noFFmpeg(string) (string, error) { return "", errors.New("not found") }

func newService(store *mocks.Client, fake *apitest.Fake) *media.Service {
	return media.NewService(store, "assets", fake, "tenant-1", zap.NewNop(),
		media.WithPrefix("/media/"),
		media.WithLookPath(noFFmpeg),
	)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestUpload_LocalImage(t *testing.T) {
	store := new(mocks.Client)
	fake := apitest.New()
	svc := newService(store, fake)
	src := writeFile(t, "Blå Sko.png", pngBytes)

	store.On("PutObject", mock.Anything, "assets",
		mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "media/") && strings.HasSuffix(key, "-bla-sko.png")
		}),
		mock.Anything, int64(len(pngBytes)),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "image/png" }),
	).Return(minio.UploadInfo{}, nil).Once()

	asset, err := svc.Upload(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.MimeType)

	again, err := svc.Upload(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, asset, again, "second upload is served from cache")

	store.AssertExpectations(t)
	assert.Equal(t, []string{asset.Key}, store.Uploaded())
	regs := fake.Calls("REGISTER_IMAGE")
	require.Len(t, regs, 1)
	assert.True(t, regs[0].SuppressErrors)
	assert.Equal(t, asset.Key, regs[0].Variables["key"])
}

func TestUpload_RemoteFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4\n%fake"))
	}))
	defer srv.Close()

	store := new(mocks.Client)
	fake := apitest.New()
	svc := newService(store, fake)
	store.On("PutObject", mock.Anything, "assets", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil).Once()

	asset, err := svc.Upload(context.Background(), srv.URL+"/docs/manual.pdf?v=2", "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", asset.MimeType)
	assert.True(t, strings.HasSuffix(asset.Key, "-manual.pdf"))
	assert.Empty(t, fake.Calls(), "only images are registered")

	_, err = svc.Upload(context.Background(), srv.URL+"/missing.pdf", "")
	assert.ErrorContains(t, err, "404")
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "Playlist without ffmpeg",
			src:     func(t *testing.T) string { return "https://cdn.example.com/video/master.m3u8" },
			wantErr: media.ErrTranscoderUnavailable,
		},
		{
			name:    "Unknown binary",
			src:     func(t *testing.T) string { return writeFile(t, "blob", []byte{0x00, 0x01, 0x02, 0xfe}) },
			wantErr: media.ErrUnknownFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.Client)
			svc := newService(store, apitest.New())

			_, err := svc.Upload(context.Background(), tt.src(t), "")
			assert.ErrorIs(t, err, tt.wantErr)
			store.AssertNotCalled(t, "PutObject")
		})
	}
}

func TestUpload_StoreFailure(t *testing.T) {
	store := new(mocks.Client)
	svc := newService(store, apitest.New())
	store.On("PutObject", mock.Anything, "assets", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))

	_, err := svc.Upload(context.Background(), writeFile(t, "a.png", pngBytes), "")
	assert.ErrorContains(t, err, "access denied")
}

func TestUploadBytes(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fileName string
		wantKey  string
		wantErr  error
	}{
		{name: "Image buffer", data: pngBytes, fileName: "Logo.png", wantKey: "-logo.png"},
		{name: "Empty buffer", data: nil, fileName: "empty.png", wantErr: media.ErrUnknownFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.Client)
			fake := apitest.New()
			svc := newService(store, fake)
			store.On("PutObject", mock.Anything, "assets", mock.Anything, mock.Anything, int64(len(tt.data)), mock.Anything).
				Return(minio.UploadInfo{}, nil).Maybe()

			asset, err := svc.UploadBytes(context.Background(), tt.data, tt.fileName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				store.AssertNotCalled(t, "PutObject")
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(asset.Key, tt.wantKey))
			assert.Equal(t, []string{asset.Key}, store.Uploaded())
			assert.Len(t, fake.Calls("REGISTER_IMAGE"), 1)
		})
	}
}

func TestUpload_DataURI(t *testing.T) {
	store := new(mocks.Client)
	svc := newService(store, apitest.New())
	store.On("PutObject", mock.Anything, "assets", mock.Anything, mock.Anything, int64(len(pngBytes)),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "image/png" }),
	).Return(minio.UploadInfo{}, nil).Once()

	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	asset, err := svc.Upload(context.Background(), src, "badge.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(asset.Key, "-badge.png"))
	store.AssertExpectations(t)

	_, err = svc.Upload(context.Background(), "data:image/png;base64", "")
	assert.ErrorContains(t, err, "malformed data URI")
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fileName string
		want     string
		wantErr  bool
	}{
		{"PNG content", pngBytes, "image", "image/png", false},
		{"SVG by extension", []byte("<?xml version=\"1.0\"?>"), "logo.svg", "image/svg+xml", false},
		{"SVG by markup", []byte("<svg xmlns=\"http://www.w3.org/2000/svg\"></svg>"), "logo", "image/svg+xml", false},
		{"JSON by extension", []byte(`{"a":1}`), "data.json", "application/json", false},
		{"Plain text", []byte("hello"), "notes", "text/plain", false},
		{"Unknown", []byte{0x00, 0xff, 0x10}, "blob", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := media.DetectType(tt.data, tt.fileName)
			if tt.wantErr {
				assert.ErrorIs(t, err, media.ErrUnknownFileType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Blå Sko.png", "bla-sko"},
		{"/tmp/Crème Brûlée (1).jpg", "creme-brulee-1"},
		{"already_slug.v2.txt", "already_slug.v2"},
		{"???.png", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, media.Slug(tt.in))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", media.Extension("image/png", "photo.PNG"))
	assert.Equal(t, ".jpg", media.Extension("image/jpeg", "photo"))
	assert.Equal(t, ".mp4", media.Extension("video/mp4", ""))
}
