package capture

import (
	"bytes"
	"context"
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
)

// fakeS3 is an in-memory bucket that pages ListObjectsV2 two keys at a time.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	lists   int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++

	prefix := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Prefix)
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, aws.ToString(in.Bucket)+"/"))
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start = sort.SearchStrings(keys, tok)
	}
	end := min(start+2, len(keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func testStores(t *testing.T) map[string]Store {
	dir, err := NewDirStore(filepath.Join(t.TempDir(), "captures"))
	require.NoError(t, err)
	return map[string]Store{
		"dir":      dir,
		"s3":       NewS3Store(newFakeS3(), "bucket", "captures/"),
		"s3-nopfx": NewS3Store(newFakeS3(), "bucket", ""),
	}
}

func TestStorePutGetList(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ids, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)

			var want []string
			for i := 0; i < 5; i++ {
				id := NewID()
				want = append(want, id)
				require.NoError(t, store.Put(ctx, id, Encode(sampleRecords()[:i%3+1])))
			}
			sort.Strings(want)

			ids, err = store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, ids)

			got, err := Load(ctx, store, want[0])
			require.NoError(t, err)
			assert.NotEmpty(t, got)
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), NewID())
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreRejectsInvalidIDs(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "../etc/passwd", "not-a-ksuid"} {
				assert.ErrorIs(t, store.Put(context.Background(), id, nil), ErrInvalidID)
				_, err := store.Get(context.Background(), id)
				assert.ErrorIs(t, err, ErrInvalidID)
			}
		})
	}
}

func TestDirStoreIgnoresForeignFiles(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "junk"+Extension), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "sub"), 0755))

	id := NewID()
	require.NoError(t, store.Put(context.Background(), id, Encode(nil)))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestDirStoreCancelled(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Put(ctx, NewID(), nil), context.Canceled)
}

func TestS3StorePaginates(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "p")
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Put(context.Background(), NewID(), Encode(nil)))
	}
	client.lists = 0

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 5)
	assert.Equal(t, 3, client.lists)
}

func TestS3StoreKeyLayout(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "/captures/")
	id := NewID()
	require.NoError(t, store.Put(context.Background(), id, []byte("x")))
	_, ok := client.objects["bucket/captures/"+id+Extension]
	assert.True(t, ok)
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err := envCredentials{}.Retrieve(context.Background())
	assert.ErrorIs(t, err, errNoCredentials)

	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	creds, err := envCredentials{}.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client("us-east-1", "http://localhost:9000")
	opts := c.Options()
	assert.Equal(t, "us-east-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
}
