package filekit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 stores files as objects under an optional key prefix.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 builds a client from the default AWS credential chain, or from
// static keys when both are configured. S3Endpoint targets MinIO and other
// S3-compatible stores.
func NewS3(ctx context.Context, cfg Config) (*S3, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket required", ErrInvalidDriver)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3ForcePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return NewS3WithClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client *s3.Client, bucket, prefix string) *S3 {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (a *S3) key(p string) string {
	return a.prefix + strings.TrimPrefix(path.Clean("/"+p), "/")
}

func (a *S3) Upload(ctx context.Context, filePath string, content io.Reader, options ...Option) error {
	opts := processOptions(options...)

	// PutObject needs a seekable body to sign the payload.
	body, ok := content.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(content)
		if err != nil {
			return &PathError{Op: "upload", Path: filePath, Err: err}
		}
		body = bytes.NewReader(buf)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
		Body:   body,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return mapS3Error("upload", filePath, err)
	}
	return nil
}

func (a *S3) Download(ctx context.Context, filePath string) (io.ReadCloser, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
	})
	if err != nil {
		return nil, mapS3Error("download", filePath, err)
	}
	return resp.Body, nil
}

func (a *S3) Delete(ctx context.Context, filePath string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
	})
	if err != nil {
		return mapS3Error("delete", filePath, err)
	}
	return nil
}

func (a *S3) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, mapS3Error("exists", filePath, err)
	}
	return true, nil
}

func (a *S3) List(ctx context.Context, prefix string) ([]File, error) {
	dir := a.key(prefix)
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	files := []File{}
	pager := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(a.bucket),
		Prefix:    aws.String(dir),
		Delimiter: aws.String("/"),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error("list", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := path.Base(key)
			files = append(files, File{
				Name:        name,
				Path:        strings.TrimPrefix(key, a.prefix),
				Size:        aws.ToInt64(obj.Size),
				ModTime:     aws.ToTime(obj.LastModified).UTC(),
				ContentType: mime.TypeByExtension(path.Ext(name)),
			})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &notFound)
}

// mapS3Error maps S3 errors to filekit errors
func mapS3Error(op, path string, err error) error {
	if isNotFound(err) {
		return &PathError{Op: op, Path: path, Err: ErrNotExist}
	}
	return &PathError{Op: op, Path: path, Err: err}
}
