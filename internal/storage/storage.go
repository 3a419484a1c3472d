package storage

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/SpareCarry/sparecarry-sub004/internal/apierr"
	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// DefaultListLimit is the page size List uses when none is given.
const DefaultListLimit = 100

// Clock supplies upload timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies object ids.
type IDGenerator interface {
	Generate() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type uuidGenerator struct{}

func (uuidGenerator) Generate() string { return uuid.NewString() }

// Metadata describes a stored payload.
type Metadata struct {
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype"`
	CacheControl string `json:"cacheControl"`
	LastModified string `json:"lastModified"`
	ETag         string `json:"eTag"`
}

// FileObject is one List or Remove entry.
type FileObject struct {
	Name      string   `json:"name"`
	ID        string   `json:"id"`
	BucketID  string   `json:"bucket_id"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	Metadata  Metadata `json:"metadata"`
}

type object struct {
	id        string
	data      []byte
	createdAt string
	updatedAt string
	meta      Metadata
}

func (o *object) fileObject(bucket, name string) FileObject {
	return FileObject{
		Name:      name,
		ID:        o.id,
		BucketID:  bucket,
		CreatedAt: o.createdAt,
		UpdatedAt: o.updatedAt,
		Metadata:  o.meta,
	}
}

// Storage holds every bucket. Create with New; the zero value is not
// usable.
//
// Thread-safety: all methods are safe for concurrent use.
type Storage struct {
	mu      sync.Mutex
	buckets map[string]map[string]*object
	baseURL string
	clock   Clock
	ids     IDGenerator
	logger  *slog.Logger
}

// Option configures a Storage.
type Option func(*Storage)

// WithBaseURL sets the URL public and signed URLs are built from.
func WithBaseURL(u string) Option {
	return func(s *Storage) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithClock overrides the upload timestamp source.
func WithClock(c Clock) Option {
	return func(s *Storage) { s.clock = c }
}

// WithIDGenerator overrides the object id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Storage) { s.ids = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Storage) { s.logger = l }
}

// New creates an empty storage emulator.
func New(opts ...Option) *Storage {
	s := &Storage{
		buckets: make(map[string]map[string]*object),
		baseURL: "http://localhost:54321",
		clock:   systemClock{},
		ids:     uuidGenerator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// From returns a handle on bucket. The bucket itself is created by the
// first upload.
func (s *Storage) From(bucket string) *Bucket {
	return &Bucket{s: s, name: bucket}
}

// ListBuckets returns the names of non-empty buckets in sorted order.
func (s *Storage) ListBuckets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.buckets))
	for name, objs := range s.buckets {
		if len(objs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// EmptyBucket removes every object in bucket and returns how many there
// were.
func (s *Storage) EmptyBucket(bucket string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.buckets[bucket])
	delete(s.buckets, bucket)
	return n
}

// Reset drops every bucket.
func (s *Storage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = make(map[string]map[string]*object)
}

// ETag returns the entity tag for a payload: the quoted xxhash64 digest.
func ETag(data []byte) string {
	return fmt.Sprintf("%q", fmt.Sprintf("%016x", xxhash.Sum64(data)))
}

// DetectMimetype picks the content type for an upload: the explicit type,
// else the extension's registered type, else a sniff of the payload.
func DetectMimetype(name, explicit string, data []byte) string {
	if explicit != "" {
		return explicit
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func (s *Storage) now() string {
	return record.FormatTime(s.clock.Now())
}

// objectURL joins the storage base with escaped path segments.
func (s *Storage) objectURL(kind, bucket, name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = escapeSegment(seg)
	}
	return fmt.Sprintf("%s/storage/v1/object/%s/%s/%s", s.baseURL, kind, escapeSegment(bucket), strings.Join(segments, "/"))
}

func notFound(bucket, name string) *apierr.Error {
	return apierr.NotFound("Object not found").
		WithDetail("bucket", bucket).
		WithDetail("path", name)
}
