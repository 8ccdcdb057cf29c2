// Package storage abstracts the locations a feature run reads from and writes
// to.  A location is either a local filesystem path or an "s3://bucket/key"
// URI served by an S3-compatible object store.
package storage

import (
	"context"
	"io"
	"strings"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// SchemeS3 prefixes object-store locations.
const SchemeS3 = "s3://"

// ObjectStore opens, creates and lists locations.
type ObjectStore interface {
	// Open returns a reader for location.  A missing location yields a
	// COMMON_005 error.
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// Create returns a writer whose content becomes visible at location only
	// after Commit.  Abort discards it.
	Create(ctx context.Context, location string) (Writer, error)

	// List returns the locations directly under location whose name ends in
	// ext (case-insensitive), sorted lexically.  An empty ext matches all.
	List(ctx context.Context, location, ext string) ([]string, error)
}

// Writer is a pending object.
type Writer interface {
	io.Writer
	Commit() error
	Abort() error
}

// IsObjectURI reports whether location names an object-store object.
func IsObjectURI(location string) bool {
	return strings.HasPrefix(location, SchemeS3)
}

// ParseObjectURI splits "s3://bucket/key" into bucket and key.  The key may
// be empty when the URI names a whole bucket.
func ParseObjectURI(location string) (bucket, key string, err error) {
	if !IsObjectURI(location) {
		return "", "", errors.InvalidParam("not an object-store location").WithDetailf("location=%q", location)
	}
	rest := strings.TrimPrefix(location, SchemeS3)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.InvalidParam("object-store location has no bucket").WithDetailf("location=%q", location)
	}
	return bucket, key, nil
}

// MatchesExt reports whether name ends in ext, ignoring case.
func MatchesExt(name, ext string) bool {
	if ext == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext))
}

// ─────────────────────────────────────────────────────────────────────────────
// Router
// ─────────────────────────────────────────────────────────────────────────────

// Router sends s3:// locations to the object store and everything else to
// the local filesystem store.
type Router struct {
	local  ObjectStore
	object ObjectStore
}

// NewRouter returns a Router.  object may be nil when no object store is
// configured; s3:// locations then fail with COMMON_017.
func NewRouter(local, object ObjectStore) *Router {
	return &Router{local: local, object: object}
}

func (r *Router) pick(location string) (ObjectStore, error) {
	if !IsObjectURI(location) {
		return r.local, nil
	}
	if r.object == nil {
		return nil, errors.New(errors.ErrCodeStorageError, "no object store configured").
			WithDetailf("location=%q", location)
	}
	return r.object, nil
}

func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	s, err := r.pick(location)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, location)
}

func (r *Router) Create(ctx context.Context, location string) (Writer, error) {
	s, err := r.pick(location)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, location)
}

func (r *Router) List(ctx context.Context, location, ext string) ([]string, error) {
	s, err := r.pick(location)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, location, ext)
}

var _ ObjectStore = (*Router)(nil)

//Personal.AI order the ending
