package tweets

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	body string
	etag string
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, _ *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(f.body)),
		ETag: aws.String(f.etag),
	}, nil
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, _ *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{ETag: aws.String(f.etag)}, nil
}

func TestSplitS3Path(t *testing.T) {
	bucket, key, ok := splitS3Path("s3://my-bucket/archives/tweets.js")
	require.True(t, ok)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "archives/tweets.js", key)

	_, _, ok = splitS3Path("data/tweets.js")
	assert.False(t, ok)
	_, _, ok = splitS3Path("s3://only-bucket")
	assert.False(t, ok)
}

func TestS3Source(t *testing.T) {
	src := &s3Source{
		svc:    &fakeS3{body: `[{"id_str": "9", "text": "cloud"}]`, etag: `"abc123"`},
		bucket: "my-bucket",
		key:    "tweets.js",
	}
	ctx := context.Background()

	version, err := src.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"abc123"`, version)

	data, version, err := src.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"abc123"`, version)
	assert.Contains(t, string(data), `"id_str": "9"`)

	assert.Equal(t, "s3://my-bucket/tweets.js", src.Describe())
}

func TestNewSourcePicksBackend(t *testing.T) {
	_, isLocal := NewSource("data/tweets.js", "us-east-1").(*localSource)
	assert.True(t, isLocal)
}
