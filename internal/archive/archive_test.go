package archive

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sharkguard/internal/config"
)

func TestFilesystem_Archive(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFilesystem(root)
	require.NoError(t, err)

	key := "imports/2024/03/05/abc-catches.csv"
	require.NoError(t, fs.Archive(context.Background(), key, []byte("a,b\n1,2\n")))

	got, err := os.ReadFile(filepath.Join(root, "imports", "2024", "03", "05", "abc-catches.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))

	entries, err := os.ReadDir(filepath.Join(root, "imports", "2024", "03", "05"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFilesystem_RejectsBadKeys(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", " ", "/etc/passwd", "../escape.csv", "imports/../../escape.csv"} {
		assert.Error(t, fs.Archive(context.Background(), key, []byte("x")), "key %q", key)
	}
}

func TestFilesystem_CanceledContext(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, fs.Archive(ctx, "a.csv", []byte("x")), context.Canceled)
}

// putRecorder is a fake S3 endpoint that records PUT requests.
type putRecorder struct {
	mu     sync.Mutex
	paths  []string
	bodies []string
	status int
}

func (p *putRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}

	p.mu.Lock()
	p.paths = append(p.paths, req.Method+" "+req.URL.Path)
	p.bodies = append(p.bodies, string(body))
	status := p.status
	p.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     http.Header{"Etag": {`"abc"`}},
		Request:    req,
	}, nil
}

func newTestS3(t *testing.T, rt http.RoundTripper, prefix string) *S3 {
	t.Helper()
	a, err := NewS3(context.Background(), S3Config{
		Bucket:          "catches",
		Prefix:          prefix,
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		optFns: []func(*s3.Options){func(o *s3.Options) {
			o.HTTPClient = &http.Client{Transport: rt}
			o.RetryMaxAttempts = 1
		}},
	})
	require.NoError(t, err)
	return a
}

func TestS3_Archive(t *testing.T) {
	rt := &putRecorder{}
	a := newTestS3(t, rt, "sharkguard")

	require.NoError(t, a.Archive(context.Background(), "imports/2024/03/05/abc-catches.csv", []byte("_id\n1\n")))

	require.Len(t, rt.paths, 1)
	assert.Equal(t, "PUT /catches/sharkguard/imports/2024/03/05/abc-catches.csv", rt.paths[0])
	assert.Contains(t, rt.bodies[0], "_id\n1\n")
}

func TestS3_ArchiveError(t *testing.T) {
	rt := &putRecorder{status: http.StatusForbidden}
	a := newTestS3(t, rt, "")

	err := a.Archive(context.Background(), "a.csv", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://catches/a.csv")
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	a, err := Open(ctx, config.ArchiveConfig{Backend: BackendNone})
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = Open(ctx, config.ArchiveConfig{Backend: BackendFilesystem, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Filesystem{}, a)

	a, err = Open(ctx, config.ArchiveConfig{Backend: BackendS3, S3Bucket: "b", S3Region: "eu-west-1"})
	require.NoError(t, err)
	assert.IsType(t, &S3{}, a)

	_, err = Open(ctx, config.ArchiveConfig{Backend: "ftp"})
	assert.Error(t, err)
}
