package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(endpoint string) *S3Service {
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
	})
	return NewS3Service(client)
}

func TestGetObjectURLPresigns(t *testing.T) {
	svc := newTestService("http://localhost:9000")

	url, err := svc.GetObjectURL(context.Background(), "exports", "exports/u1/report.csv", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/exports/exports/u1/report.csv?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestListObjectsReadsAllPages(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Query().Get("continuation-token") == "" {
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>exports</Name><Prefix>exports/u1/</Prefix><KeyCount>1</KeyCount>
  <IsTruncated>true</IsTruncated><NextContinuationToken>next</NextContinuationToken>
  <Contents><Key>exports/u1/a.csv</Key><Size>10</Size></Contents>
</ListBucketResult>`))
			return
		}
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>exports</Name><Prefix>exports/u1/</Prefix><KeyCount>1</KeyCount>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>exports/u1/b.csv</Key><Size>20</Size></Contents>
</ListBucketResult>`))
	}))
	defer srv.Close()

	objects, err := newTestService(srv.URL).ListObjects(context.Background(), "exports", "exports/u1/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "exports/u1/a.csv", objects[0].Key)
	assert.Equal(t, int64(20), objects[1].Size)
	assert.Equal(t, 2, calls)
}

func TestRequiresBucket(t *testing.T) {
	svc := newTestService("http://localhost:9000")
	ctx := context.Background()

	_, err := svc.Upload(ctx, strings.NewReader("x"), UploadOptions{Key: "k"})
	assert.Error(t, err)
	_, err = svc.Upload(ctx, strings.NewReader("x"), UploadOptions{Bucket: "b"})
	assert.Error(t, err)
	_, err = svc.DeletePrefix(ctx, "b", " ")
	assert.Error(t, err)
	_, err = svc.GetObjectURL(ctx, "", "k", time.Minute)
	assert.Error(t, err)
}
