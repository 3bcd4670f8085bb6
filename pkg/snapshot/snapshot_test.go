package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vtree/internal/config"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = data
	f.meta[*in.Key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(data)),
		Metadata: f.meta[*in.Key],
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func stores(t *testing.T) map[string]Store {
	disk, err := NewDiskStore(filepath.Join(t.TempDir(), "snaps"))
	require.NoError(t, err)
	return map[string]Store{
		"disk": disk,
		"s3":   NewS3Store(newFakeS3(), "bucket", "ci/"),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "todo/initial")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "todo/initial", []byte("<ul></ul>")))
			require.NoError(t, s.Put(ctx, "todo/done", []byte("<ul><li>x</li></ul>")))
			require.NoError(t, s.Put(ctx, "about", []byte("<p>hi</p>")))
			require.NoError(t, s.Put(ctx, "todo/initial", []byte("<ul>\n</ul>")))

			got, err := s.Get(ctx, "todo/initial")
			require.NoError(t, err)
			assert.Equal(t, "<ul>\n</ul>", string(got))

			names, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"about", "todo/done", "todo/initial"}, names)

			require.NoError(t, s.Delete(ctx, "about"))
			names, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"todo/done", "todo/initial"}, names)
		})
	}
}

func TestInvalidNames(t *testing.T) {
	ctx := context.Background()
	for _, bad := range []string{"", "../escape", "a/./b", "a//b", "sp ace", "/abs"} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
		for name, s := range stores(t) {
			assert.ErrorIs(t, s.Put(ctx, bad, nil), ErrInvalidName, name)
		}
	}
	assert.NoError(t, ValidateName("a/b-c/d_e.v2"))
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	s := NewS3Store(newFakeS3(), "b", "")
	require.NoError(t, s.Put(ctx, "page", []byte("<div>\n  <p>a</p>\n</div>\n")))

	assert.NoError(t, Check(ctx, s, "page", []byte("<div>\n  <p>a</p>\n</div>\n")))

	err := Check(ctx, s, "page", []byte("<div>\n  <p>b</p>\n</div>\n"))
	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, 2, mm.Line)
	assert.Equal(t, "  <p>a</p>", mm.Want)
	assert.Equal(t, "  <p>b</p>", mm.Got)

	err = Check(ctx, s, "page", []byte("<div>\n"))
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, 2, mm.Line)

	assert.ErrorIs(t, Check(ctx, s, "other", nil), ErrNotFound)
}

func TestDiskCorruption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "x", []byte("one")))

	meta, err := s.Stat("x")
	require.NoError(t, err)
	assert.EqualValues(t, 3, meta.Size)
	assert.Len(t, meta.SHA256, 64)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.snap"), []byte("two"), 0o644))
	_, err = s.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrCorrupt)

	// A snapshot without metadata is accepted as is.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hand.snap"), []byte("h"), 0o644))
	got, err := s.Get(ctx, "hand")
	require.NoError(t, err)
	assert.Equal(t, "h", string(got))

	_, err = s.Stat("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
}

func TestS3Corruption(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := NewS3Store(fake, "b", "p/")
	require.NoError(t, s.Put(ctx, "x", []byte("one")))
	assert.Equal(t, digest([]byte("one")), fake.meta["p/x.snap"][metaSHA256])

	fake.objects["p/x.snap"] = []byte("two")
	_, err := s.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDiskCancelled(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Put(ctx, "x", nil), context.Canceled)
}

func TestOpen(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "store")
	s, err := Open(ctx, config.SnapshotConfig{Backend: "disk", Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &DiskStore{}, s)
	assert.DirExists(t, dir)

	s, err = Open(ctx, config.SnapshotConfig{Backend: "s3", Bucket: "b", Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)

	_, err = Open(ctx, config.SnapshotConfig{Backend: "ftp"})
	assert.Error(t, err)
}

// isolateAWS points the default credential chain at empty files so tests
// do not pick up the developer's profile.
func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
}

func TestNewS3Client(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()

	t.Run("custom endpoint", func(t *testing.T) {
		client, err := NewS3Client(ctx, config.SnapshotConfig{Region: "eu-west-1", Endpoint: "http://localhost:9000"})
		require.NoError(t, err)
		o := client.Options()
		assert.Equal(t, "eu-west-1", o.Region)
		assert.True(t, o.UsePathStyle)
		require.NotNil(t, o.BaseEndpoint)
		assert.Equal(t, "http://localhost:9000", *o.BaseEndpoint)
		assert.NotNil(t, o.Credentials)
	})

	t.Run("region from environment", func(t *testing.T) {
		t.Setenv("AWS_REGION", "ap-south-1")
		client, err := NewS3Client(ctx, config.SnapshotConfig{})
		require.NoError(t, err)
		o := client.Options()
		assert.Equal(t, "ap-south-1", o.Region)
		assert.False(t, o.UsePathStyle)
		assert.Nil(t, o.BaseEndpoint)
	})

	t.Run("default region", func(t *testing.T) {
		client, err := NewS3Client(ctx, config.SnapshotConfig{})
		require.NoError(t, err)
		assert.Equal(t, defaultRegion, client.Options().Region)
	})
}
