//go:build integration

// Package integration runs the feature pipeline against real Redis and MinIO
// containers.  Set NBFEAT_INTEGRATION_TEST=1 to enable it.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage/minio"
)

const (
	minioUser     = "nbfeat"
	minioPassword = "nbfeat-secret"
)

// SkipIfNoIntegration skips the calling test unless NBFEAT_INTEGRATION_TEST
// is set.
func SkipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("NBFEAT_INTEGRATION_TEST") == "" {
		t.Skip("set NBFEAT_INTEGRATION_TEST=1 to run integration tests")
	}
}

func endpoint(t *testing.T, ctx context.Context, c testcontainers.Container, port string) string {
	t.Helper()
	host, err := c.Host(ctx)
	require.NoError(t, err)
	if host == "" || host == "null" {
		host = "localhost"
	}
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

// startRedis returns the address of a fresh Redis container.
func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	return endpoint(t, ctx, c, "6379")
}

// startMinIO returns a connected client for a fresh MinIO container.
func startMinIO(t *testing.T) *minio.MinIOClient {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	client, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:        endpoint(t, ctx, c, "9000"),
		AccessKeyID:     minioUser,
		SecretAccessKey: minioPassword,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// upload copies a local file to an s3:// location.
func upload(t *testing.T, store *minio.Store, src, location string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	w, err := store.Create(context.Background(), location)
	require.NoError(t, err)
	_, err = io.Copy(w, bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
}

// download reads an s3:// location fully.
func download(t *testing.T, store *minio.Store, location string) []byte {
	t.Helper()
	rc, err := store.Open(context.Background(), location)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

//Personal.AI order the ending
