package tweets

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Source abstracts where the archive file lives. The version token is a
// cheap change marker: file mtime locally, ETag on S3.
type Source interface {
	Version(ctx context.Context) (string, error)
	Read(ctx context.Context) ([]byte, string, error)
	Describe() string
}

// NewSource returns an S3-backed source for s3:// paths and a local
// file source otherwise.
func NewSource(path, region string) Source {
	if bucket, key, ok := splitS3Path(path); ok {
		sess := session.Must(session.NewSession(&aws.Config{
			Region: aws.String(region),
		}))
		return &s3Source{svc: s3.New(sess), bucket: bucket, key: key}
	}
	return &localSource{path: path}
}

func splitS3Path(path string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(path, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

type localSource struct {
	path string
}

func (l *localSource) Version(_ context.Context) (string, error) {
	fi, err := os.Stat(l.path)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(fi.ModTime().UnixNano(), 10), nil
}

func (l *localSource) Read(ctx context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, "", err
	}
	version, err := l.Version(ctx)
	if err != nil {
		return nil, "", err
	}
	return data, version, nil
}

func (l *localSource) Describe() string { return l.path }

type s3Source struct {
	svc    s3iface.S3API
	bucket string
	key    string
}

func (s *s3Source) Version(ctx context.Context) (string, error) {
	out, err := s.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to head %s: %w", s.Describe(), err)
	}
	return aws.StringValue(out.ETag), nil
}

func (s *s3Source) Read(ctx context.Context) ([]byte, string, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get %s: %w", s.Describe(), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", s.Describe(), err)
	}
	return data, aws.StringValue(out.ETag), nil
}

func (s *s3Source) Describe() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}
