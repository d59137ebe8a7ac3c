package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/buildtrace/buildtrace/internal/domain"
)

const gitScheme = "git://"

// Backend both reads and writes documents.
type Backend interface {
	domain.SnapshotReader
	domain.ResultWriter
}

// GCSOpener creates the gs:// backend on first use.
type GCSOpener func(ctx context.Context) (Backend, error)

// Router dispatches reads and writes by URI scheme: gs:// goes to GCS,
// git:// to a read-only git source and everything else to the filesystem.
type Router struct {
	file    Backend
	git     domain.SnapshotReader
	openGCS GCSOpener

	mu  sync.Mutex
	gcs Backend
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithGCS serves gs:// URIs from b.
func WithGCS(b Backend) RouterOption {
	return func(r *Router) { r.gcs = b }
}

// WithGCSOpener defers creating the gs:// backend until a gs:// URI is used,
// so local runs never need cloud credentials.
func WithGCSOpener(open GCSOpener) RouterOption {
	return func(r *Router) { r.openGCS = open }
}

// WithGit serves git:// URIs from src.
func WithGit(src domain.SnapshotReader) RouterOption {
	return func(r *Router) { r.git = src }
}

// NewRouter creates a router whose default backend is file.
func NewRouter(file Backend, opts ...RouterOption) *Router {
	r := &Router{file: file}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read implements domain.SnapshotReader.
func (r *Router) Read(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, gcsScheme):
		b, err := r.gcsBackend(ctx)
		if err != nil {
			return nil, err
		}
		return b.Read(ctx, uri)
	case strings.HasPrefix(uri, gitScheme):
		if r.git == nil {
			return nil, fmt.Errorf("reading %s: git snapshots are not configured", uri)
		}
		return r.git.Read(ctx, uri)
	default:
		return r.file.Read(ctx, uri)
	}
}

// Write implements domain.ResultWriter. git:// is read-only.
func (r *Router) Write(ctx context.Context, uri string, v any) error {
	switch {
	case strings.HasPrefix(uri, gcsScheme):
		b, err := r.gcsBackend(ctx)
		if err != nil {
			return err
		}
		return b.Write(ctx, uri, v)
	case strings.HasPrefix(uri, gitScheme):
		return fmt.Errorf("writing %s: git snapshots are read-only", uri)
	default:
		return r.file.Write(ctx, uri, v)
	}
}

// ErrGCSNotConfigured is returned for gs:// URIs when no GCS backend exists.
var ErrGCSNotConfigured = errors.New("gs:// storage is not configured")

func (r *Router) gcsBackend(ctx context.Context) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gcs != nil {
		return r.gcs, nil
	}
	if r.openGCS == nil {
		return nil, ErrGCSNotConfigured
	}
	b, err := r.openGCS(ctx)
	if err != nil {
		return nil, err
	}
	r.gcs = b
	return b, nil
}
