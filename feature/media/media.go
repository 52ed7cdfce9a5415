package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/graphql"
	"tenant-bootstrapper/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrTranscoderUnavailable is returned for .m3u8 sources when ffmpeg is not installed.
	ErrTranscoderUnavailable = errors.New("media: ffmpeg is required to upload m3u8 sources")
	// ErrUnknownFileType is returned when neither content nor name reveal a MIME type.
	ErrUnknownFileType = errors.New("media: could not determine file type")
)

// Asset is an uploaded object.
type Asset struct {
	Key      string `json:"key"`
	MimeType string `json:"mimeType"`
}

// Uploader uploads a source once and returns its storage key.
type Uploader interface {
	Upload(ctx context.Context, src, fileName string) (Asset, error)
}

// Option configures a Service.
type Option func(*Service)

// WithPrefix sets the key prefix of uploaded objects.
func WithPrefix(prefix string) Option {
	return func(s *Service) { s.prefix = strings.Trim(prefix, "/") }
}

// WithHTTPClient sets the client used to download remote sources.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.http = c }
}

// WithLookPath replaces exec.LookPath when probing for ffmpeg.
func WithLookPath(fn func(file string) (string, error)) Option {
	return func(s *Service) { s.lookPath = fn }
}

// Service uploads media to the object store. It is safe for concurrent use.
type Service struct {
	store    storage.Client
	bucket   string
	prefix   string
	caller   api.Caller
	tenantID string
	http     *http.Client
	logger   *zap.Logger
	lookPath func(file string) (string, error)

	ffmpegOnce sync.Once
	ffmpegPath string

	mu    sync.Mutex
	cache map[string]Asset
	sf    singleflight.Group
}

// NewService creates a media service writing to bucket.
func NewService(store storage.Client, bucket string, caller api.Caller, tenantID string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		bucket:   bucket,
		prefix:   "media",
		caller:   caller,
		tenantID: tenantID,
		http:     &http.Client{Timeout: 2 * time.Minute},
		logger:   logger,
		lookPath: exec.LookPath,
		cache:    make(map[string]Asset),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TranscoderAvailable reports whether ffmpeg is installed. The probe runs once.
func (s *Service) TranscoderAvailable() bool {
	s.ffmpegOnce.Do(func() {
		if p, err := s.lookPath("ffmpeg"); err == nil {
			s.ffmpegPath = p
		}
	})
	return s.ffmpegPath != ""
}

// Upload reads src (path or URL), uploads it and returns the asset. fileName
// overrides the name derived from src.
func (s *Service) Upload(ctx context.Context, src, fileName string) (Asset, error) {
	cacheKey := src + "\x00" + fileName

	s.mu.Lock()
	cached, ok := s.cache[cacheKey]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		return s.upload(ctx, src, fileName)
	})
	if err != nil {
		return Asset{}, err
	}

	asset := v.(Asset)
	s.mu.Lock()
	s.cache[cacheKey] = asset
	s.mu.Unlock()
	return asset, nil
}

// UploadBytes uploads an in-memory buffer. Buffers are not cached.
func (s *Service) UploadBytes(ctx context.Context, data []byte, fileName string) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, fmt.Errorf("%w: %s is empty", ErrUnknownFileType, fileName)
	}
	return s.put(ctx, data, fileName)
}

func (s *Service) upload(ctx context.Context, src, fileName string) (Asset, error) {
	if fileName == "" {
		fileName = sourceName(src)
	}

	var (
		data []byte
		err  error
	)
	if isPlaylist(src) {
		if !s.TranscoderAvailable() {
			return Asset{}, ErrTranscoderUnavailable
		}
		data, err = s.transcode(ctx, src)
		fileName = strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ".mp4"
	} else {
		data, err = s.read(ctx, src)
	}
	if err != nil {
		return Asset{}, err
	}

	return s.UploadBytes(ctx, data, fileName)
}

func (s *Service) put(ctx context.Context, data []byte, fileName string) (Asset, error) {
	contentType, err := DetectType(data, fileName)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %s", err, fileName)
	}

	sum := sha256.Sum256(data)
	objectKey := Slug(fileName) + Extension(contentType, fileName)
	objectKey = hex.EncodeToString(sum[:])[:16] + "-" + objectKey
	if s.prefix != "" {
		objectKey = path.Join(s.prefix, objectKey)
	}

	_, err = s.store.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("failed to upload %s: %w", fileName, err)
	}

	if IsImage(contentType) {
		s.register(ctx, objectKey)
	}

	s.logger.Debug("Uploaded media", zap.String("key", objectKey), zap.String("mime_type", contentType), zap.Int("bytes", len(data)))
	return Asset{Key: objectKey, MimeType: contentType}, nil
}

// register asks the API to process an image. Failures are logged and ignored.
func (s *Service) register(ctx context.Context, key string) {
	if s.caller == nil {
		return
	}
	req := graphql.RegisterImage(s.tenantID, key)
	req.SuppressErrors = true

	res, err := s.caller.Call(ctx, req)
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		s.logger.Debug("Image registration failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) read(ctx context.Context, src string) ([]byte, error) {
	if isDataURI(src) {
		return decodeDataURI(src)
	}
	if !isRemote(src) {
		data, err := os.ReadFile(strings.TrimPrefix(src, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", src, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("failed to download %s: %s", src, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", src, err)
	}
	return data, nil
}

func (s *Service) transcode(ctx context.Context, src string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "media-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	cmd := exec.CommandContext(ctx, s.ffmpegPath, "-y", "-loglevel", "error", "-i", src, "-c", "copy", "-bsf:a", "aac_adtstoasc", tmp.Name())
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to transcode %s: %w: %s", src, err, strings.TrimSpace(string(out)))
	}
	return os.ReadFile(tmp.Name())
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func isDataURI(src string) bool {
	return strings.HasPrefix(src, "data:")
}

// decodeDataURI returns the payload of a data:[<type>][;base64],<data> URI.
func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode data URI: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return []byte(data), nil
}

func isPlaylist(src string) bool {
	if isDataURI(src) {
		return false
	}
	p := src
	if isRemote(src) {
		if u, err := url.Parse(src); err == nil {
			p = u.Path
		}
	}
	return strings.EqualFold(path.Ext(p), ".m3u8")
}

func sourceName(src string) string {
	if isDataURI(src) {
		return "file"
	}
	p := src
	if isRemote(src) {
		if u, err := url.Parse(src); err == nil {
			p = u.Path
		}
	}
	name := path.Base(filepath.ToSlash(p))
	if name == "." || name == "/" {
		return "file"
	}
	return name
}
