package storage

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of path-style calls S3Service makes.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
}

func (f *fakeS3) touch(bucketKey string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modified[bucketKey] = at
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	query := r.URL.Query()

	switch {
	case r.Method == http.MethodPut && key != "":
		body, _ := io.ReadAll(r.Body)
		f.objects[bucket+"/"+key] = body
		f.modified[bucket+"/"+key] = fakeEpoch
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet && query.Get("list-type") == "2":
		prefix := query.Get("prefix")
		var keys []string
		for full := range f.objects {
			if k, ok := strings.CutPrefix(full, bucket+"/"); ok && strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		fmt.Fprintf(&b, `<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><IsTruncated>false</IsTruncated>`, bucket, prefix, len(keys))
		for _, k := range keys {
			full := bucket + "/" + k
			fmt.Fprintf(&b, `<Contents><Key>%s</Key><Size>%d</Size><LastModified>%s</LastModified></Contents>`,
				k, len(f.objects[full]), f.modified[full].UTC().Format("2006-01-02T15:04:05.000Z"))
		}
		b.WriteString(`</ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, b.String())

	case r.Method == http.MethodPost && query.Has("delete"):
		var req struct {
			Objects []struct {
				Key string `xml:"Key"`
			} `xml:"Object"`
		}
		if err := xml.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, obj := range req.Objects {
			delete(f.objects, bucket+"/"+obj.Key)
			delete(f.modified, bucket+"/"+obj.Key)
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)

	default:
		http.Error(w, "unsupported", http.StatusNotImplemented)
	}
}

var fakeEpoch = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestS3(t *testing.T) (*S3Service, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte), modified: make(map[string]time.Time)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	return NewS3Service(client), fake
}

func TestS3ServiceRoundTrip(t *testing.T) {
	svc, fake := newTestS3(t)
	ctx := context.Background()

	loc, err := svc.PutObject(ctx, "exports", "/user-1/a.json", []byte(`{"a":1}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "s3://exports/user-1/a.json", loc)
	_, err = svc.PutObject(ctx, "exports", "user-1/b.json", []byte(`{}`), "application/json")
	require.NoError(t, err)
	_, err = svc.PutObject(ctx, "exports", "user-2/c.json", []byte(`{}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), fake.objects["exports/user-1/a.json"])

	objects, err := svc.ListObjects(ctx, "exports", "user-1/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "user-1/b.json", objects[0].Key, "equal times fall back to key order")
	assert.Equal(t, int64(7), objects[1].Size)
	require.NotNil(t, objects[1].LastModified)

	deleted, err := svc.DeletePrefix(ctx, "exports", "user-1/")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	objects, err = svc.ListObjects(ctx, "exports", "")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "user-2/c.json", objects[0].Key)
}

func TestS3ServiceListsNewestFirst(t *testing.T) {
	svc, fake := newTestS3(t)
	ctx := context.Background()

	for _, key := range []string{"user-1/a.json", "user-1/b.json", "user-1/c.json"} {
		_, err := svc.PutObject(ctx, "exports", key, []byte(`{}`), "application/json")
		require.NoError(t, err)
	}
	fake.touch("exports/user-1/a.json", fakeEpoch.Add(2*time.Second))
	fake.touch("exports/user-1/b.json", fakeEpoch)
	fake.touch("exports/user-1/c.json", fakeEpoch.Add(time.Second))

	objects, err := svc.ListObjects(ctx, "exports", "user-1/")
	require.NoError(t, err)
	keys := make([]string, len(objects))
	for i := range objects {
		keys[i] = objects[i].Key
	}
	assert.Equal(t, []string{"user-1/a.json", "user-1/c.json", "user-1/b.json"}, keys)
}

func TestSortNewestFirst(t *testing.T) {
	early := fakeEpoch
	late := fakeEpoch.Add(time.Minute)
	objects := []ObjectInfo{
		{Key: "undated"},
		{Key: "a", LastModified: &early},
		{Key: "b", LastModified: &late},
		{Key: "c", LastModified: &late},
	}

	sortNewestFirst(objects)

	keys := make([]string, len(objects))
	for i := range objects {
		keys[i] = objects[i].Key
	}
	assert.Equal(t, []string{"c", "b", "a", "undated"}, keys)
}

func TestS3ServiceRejectsMissingArguments(t *testing.T) {
	svc, _ := newTestS3(t)
	ctx := context.Background()

	_, err := svc.PutObject(ctx, "", "k", nil, "")
	assert.Error(t, err)
	_, err = svc.PutObject(ctx, "b", "  ", nil, "")
	assert.Error(t, err)
	_, err = svc.DeletePrefix(ctx, "b", "")
	assert.Error(t, err, "an empty prefix would wipe the bucket")
}
