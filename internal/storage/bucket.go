package storage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/SpareCarry/sparecarry-sub004/internal/apierr"
)

// UploadOptions mirrors the file options of an upload.
type UploadOptions struct {
	// Upsert allows overwriting an existing path.
	Upsert bool `yaml:"upsert"`

	// ContentType overrides mimetype detection.
	ContentType string `yaml:"content_type"`

	// CacheControl is stored verbatim; "3600" when empty.
	CacheControl string `yaml:"cache_control"`
}

// UploadData identifies a stored object.
type UploadData struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	FullPath string `json:"fullPath"`
}

// UploadResult is the outcome of Upload. Data is nil on error.
type UploadResult struct {
	Data  *UploadData   `json:"data"`
	Error *apierr.Error `json:"error"`
}

// DownloadResult is the outcome of Download. Data is a copy of the payload.
type DownloadResult struct {
	Data     []byte        `json:"data"`
	Metadata *Metadata     `json:"metadata,omitempty"`
	Error    *apierr.Error `json:"error"`
}

// ListOptions paginates List. A zero Limit means DefaultListLimit.
type ListOptions struct {
	Limit  int
	Offset int
}

// ListResult is the outcome of List and Remove.
type ListResult struct {
	Data  []FileObject  `json:"data"`
	Error *apierr.Error `json:"error"`
}

// SignedURLResult is the outcome of CreateSignedURL.
type SignedURLResult struct {
	SignedURL string        `json:"signedUrl"`
	ExpiresAt int64         `json:"expiresAt"`
	Error     *apierr.Error `json:"error"`
}

// Bucket is a handle on one bucket.
type Bucket struct {
	s    *Storage
	name string
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Upload stores data at name. An existing path is a 409 conflict unless
// opts.Upsert is set; the stored object is not touched on conflict.
func (b *Bucket) Upload(ctx context.Context, name string, data []byte, opts UploadOptions) UploadResult {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()

	objs := s.buckets[b.name]
	existing, exists := objs[name]
	if exists && !opts.Upsert {
		s.logger.DebugContext(ctx, "upload conflict", "bucket", b.name, "path", name)
		return UploadResult{Error: apierr.Conflict("The resource already exists").
			WithDetail("bucket", b.name).
			WithDetail("path", name)}
	}
	if objs == nil {
		objs = make(map[string]*object)
		s.buckets[b.name] = objs
	}

	now := s.now()
	cache := opts.CacheControl
	if cache == "" {
		cache = "3600"
	}
	obj := &object{
		id:        s.ids.Generate(),
		data:      append([]byte(nil), data...),
		createdAt: now,
		updatedAt: now,
		meta: Metadata{
			Size:         int64(len(data)),
			Mimetype:     DetectMimetype(name, opts.ContentType, data),
			CacheControl: cache,
			LastModified: now,
			ETag:         ETag(data),
		},
	}
	if exists {
		obj.id = existing.id
		obj.createdAt = existing.createdAt
	}
	objs[name] = obj

	s.logger.DebugContext(ctx, "uploaded object", "bucket", b.name, "path", name, "size", len(data), "overwrite", exists)
	return UploadResult{Data: &UploadData{ID: obj.id, Path: name, FullPath: b.name + "/" + name}}
}

// Download returns a copy of the payload at name, or a 404 error.
func (b *Bucket) Download(ctx context.Context, name string) DownloadResult {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.buckets[b.name][name]
	if !ok {
		return DownloadResult{Error: notFound(b.name, name)}
	}
	meta := obj.meta
	return DownloadResult{Data: append([]byte(nil), obj.data...), Metadata: &meta}
}

// Exists reports whether an object is stored at name.
func (b *Bucket) Exists(name string) bool {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buckets[b.name][name]
	return ok
}

// List returns the objects whose path starts with prefix, sorted by path,
// then paginated by opts. An empty prefix lists the whole bucket. Names are
// full paths.
func (b *Bucket) List(ctx context.Context, prefix string, opts ListOptions) ListResult {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()

	objs := s.buckets[b.name]
	names := make([]string, 0, len(objs))
	for name := range objs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	from := min(max(opts.Offset, 0), len(names))
	to := min(from+limit, len(names))

	out := make([]FileObject, 0, to-from)
	for _, name := range names[from:to] {
		out = append(out, objs[name].fileObject(b.name, name))
	}
	return ListResult{Data: out}
}

// Remove deletes each existing path and returns the removed objects in
// argument order. Missing paths are skipped.
func (b *Bucket) Remove(ctx context.Context, names []string) ListResult {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()

	objs := s.buckets[b.name]
	out := make([]FileObject, 0, len(names))
	for _, name := range names {
		obj, ok := objs[name]
		if !ok {
			continue
		}
		out = append(out, obj.fileObject(b.name, name))
		delete(objs, name)
	}
	if len(objs) == 0 {
		delete(s.buckets, b.name)
	}

	s.logger.DebugContext(ctx, "removed objects", "bucket", b.name, "requested", len(names), "removed", len(out))
	return ListResult{Data: out}
}

// GetPublicURL returns <base>/storage/v1/object/public/<bucket>/<path>.
// It never fails and does not check that the object exists.
func (b *Bucket) GetPublicURL(name string) string {
	return b.s.objectURL("public", b.name, name)
}

// CreateSignedURL returns <base>/storage/v1/object/sign/<bucket>/<path>
// with a token and the expiry (unix seconds) in the query string. The
// expiry is informational; nothing enforces it.
func (b *Bucket) CreateSignedURL(ctx context.Context, name string, expiresIn time.Duration) SignedURLResult {
	s := b.s
	expiresAt := s.clock.Now().Add(expiresIn).Unix()
	token := fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%s/%s@%d", b.name, name, expiresAt)))

	q := url.Values{}
	q.Set("token", token)
	q.Set("expires", strconv.FormatInt(expiresAt, 10))
	return SignedURLResult{
		SignedURL: s.objectURL("sign", b.name, name) + "?" + q.Encode(),
		ExpiresAt: expiresAt,
	}
}

func escapeSegment(seg string) string {
	return url.PathEscape(seg)
}
