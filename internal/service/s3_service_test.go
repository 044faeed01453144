package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 : minimal path-style S3 endpoint covering HEAD, ListObjectsV2 and DeleteObjects
type fakeS3 struct {
	mu         sync.Mutex
	objects    map[string]int64
	deleteBody string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/bucket/")
	switch {
	case r.Method == http.MethodHead:
		size, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var contents strings.Builder
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				contents.WriteString("<Contents><Key>" + k + "</Key><Size>1</Size></Contents>")
			}
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
			`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`+
			`<Name>bucket</Name><Prefix>`+prefix+`</Prefix><IsTruncated>false</IsTruncated>`+
			contents.String()+`</ListBucketResult>`)
	case r.Method == http.MethodPost && r.URL.Query().Has("delete"):
		body, _ := io.ReadAll(r.Body)
		f.deleteBody = string(body)
		for k := range f.objects {
			if strings.Contains(f.deleteBody, "<Key>"+k+"</Key>") {
				delete(f.objects, k)
			}
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
			`<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestS3Service(t *testing.T, handler http.Handler) *S3Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
	})
	return newS3Service(client, "bucket", nil)
}

func TestS3Service_StatObject(t *testing.T) {
	svc := newTestS3Service(t, &fakeS3{objects: map[string]int64{"documents/u/eps/1_v1.pdf": 1000}})

	info, err := svc.StatObject(context.Background(), "documents/u/eps/1_v1.pdf")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int64(1000), info.SizeBytes)
	assert.Equal(t, "application/pdf", info.ContentType)

	missing, err := svc.StatObject(context.Background(), "documents/u/eps/2_v2.pdf")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestS3Service_DeletePrefix(t *testing.T) {
	fake := &fakeS3{objects: map[string]int64{
		"documents/u/eps/1_v1.pdf": 10,
		"documents/u/rut/1_v1.pdf": 10,
	}}
	svc := newTestS3Service(t, fake)

	require.NoError(t, svc.DeletePrefix(context.Background(), "documents/u/eps/1_v1.pdf"))

	assert.Contains(t, fake.deleteBody, "documents/u/eps/1_v1.pdf")
	assert.NotContains(t, fake.objects, "documents/u/eps/1_v1.pdf")
	assert.Contains(t, fake.objects, "documents/u/rut/1_v1.pdf")
}

func TestS3Service_SignedURLs(t *testing.T) {
	svc := newTestS3Service(t, http.NotFoundHandler())
	before := time.Now().UTC()

	upload, err := svc.SignUpload(context.Background(), "documents/u/eps/1_v1.pdf", "application/pdf", 15*time.Minute)
	require.NoError(t, err)

	parsed, err := url.Parse(upload.URL)
	require.NoError(t, err)
	assert.Equal(t, "/bucket/documents/u/eps/1_v1.pdf", parsed.Path)
	assert.Equal(t, "900", parsed.Query().Get("X-Amz-Expires"))
	assert.Contains(t, parsed.Query().Get("X-Amz-SignedHeaders"), "content-type")
	assert.WithinDuration(t, before.Add(15*time.Minute), upload.ExpiresAt, 5*time.Second)

	download, err := svc.SignDownload(context.Background(), "documents/u/eps/1_v1.pdf", 5*time.Minute)
	require.NoError(t, err)
	parsed, err = url.Parse(download.URL)
	require.NoError(t, err)
	assert.Equal(t, "300", parsed.Query().Get("X-Amz-Expires"))
}
