package minio

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// Store implements storage.ObjectStore for s3:// locations.
type Store struct {
	client *MinIOClient
	logger logging.Logger
}

// NewStore returns an object store backed by client.
func NewStore(client *MinIOClient, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Store{client: client, logger: log}
}

func (s *Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := storage.ParseObjectURI(location)
	if err != nil {
		return nil, err
	}
	api, err := s.client.api()
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; stat first so a missing key surfaces here.
	if _, err := api.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, translateErr(err, "failed to stat object", location)
	}
	rc, err := api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateErr(err, "failed to get object", location)
	}
	return rc, nil
}

func (s *Store) Create(ctx context.Context, location string) (storage.Writer, error) {
	bucket, key, err := storage.ParseObjectURI(location)
	if err != nil {
		return nil, err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return nil, errors.InvalidParam("object location must name a key").WithDetailf("location=%q", location)
	}
	api, err := s.client.api()
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	w := &objectWriter{pw: pw, done: make(chan error, 1), location: location}
	go func() {
		_, err := api.PutObject(ctx, bucket, key, pr, -1, minio.PutObjectOptions{
			ContentType: contentTypeFor(key),
			PartSize:    s.client.config.PartSize,
		})
		// Unblock a writer still waiting on the pipe.
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

func (s *Store) List(ctx context.Context, location, ext string) ([]string, error) {
	bucket, prefix, err := storage.ParseObjectURI(location)
	if err != nil {
		return nil, err
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	api, err := s.client.api()
	if err != nil {
		return nil, err
	}

	var out []string
	for obj := range api.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, translateErr(obj.Err, "failed to list objects", location)
		}
		if strings.HasSuffix(obj.Key, "/") || !storage.MatchesExt(obj.Key, ext) {
			continue
		}
		out = append(out, storage.SchemeS3+bucket+"/"+obj.Key)
	}
	sort.Strings(out)
	s.logger.Debug("Listed objects", logging.String("location", location), logging.Int("count", len(out)))
	return out, nil
}

// objectWriter streams into a PutObject call running on another goroutine.
type objectWriter struct {
	pw       *io.PipeWriter
	done     chan error
	location string
	finished bool
	err      error
}

var errUploadAborted = errors.New(errors.ErrCodeStorageError, "upload aborted")

func (w *objectWriter) Write(p []byte) (int, error) { return w.pw.Write(p) }

func (w *objectWriter) Commit() error {
	if w.finished {
		return w.err
	}
	w.finished = true
	_ = w.pw.Close()
	if err := <-w.done; err != nil {
		w.err = translateErr(err, "failed to upload object", w.location)
	}
	return w.err
}

func (w *objectWriter) Abort() error {
	if w.finished {
		return nil
	}
	w.finished = true
	_ = w.pw.CloseWithError(errUploadAborted)
	<-w.done
	return nil
}

func translateErr(err error, msg, location string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return errors.NotFound("object not found").WithDetailf("location=%s", location).WithCause(err)
	case "NoSuchBucket":
		return ErrBucketNotFound.WithDetailf("location=%s", location).WithCause(err)
	}
	return errors.Wrap(err, errors.ErrCodeStorageError, msg).WithDetailf("location=%s", location)
}

func contentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		return "text/csv"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}

var _ storage.ObjectStore = (*Store)(nil)

//Personal.AI order the ending
