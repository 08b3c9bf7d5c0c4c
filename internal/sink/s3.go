package sink

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"amiqc/internal/config"
)

// S3Writer persists record sets to S3-compatible object storage. Locations
// become object keys under the configured bucket.
type S3Writer struct {
	client *s3.Client
	bucket string
	format string
	logger *slog.Logger
}

// NewS3Writer creates an S3Writer from the tenant's S3 settings. Custom
// endpoints use path-style addressing, which the S3-compatible providers
// require.
func NewS3Writer(cfg *config.S3Config, format string, logger *slog.Logger) (*S3Writer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 writer: no bucket configured")
	}
	if !ValidFormat(format) {
		return nil, fmt.Errorf("s3 writer: unsupported format %q", format)
	}

	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return &S3Writer{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		format: format,
		logger: logger,
	}, nil
}

func (w *S3Writer) Format() string { return w.format }

func (w *S3Writer) WriteRows(ctx context.Context, location string, columns []string, rows [][]interface{}) error {
	data, err := Encode(w.format, columns, rows)
	if err != nil {
		return err
	}
	key := strings.TrimPrefix(location, "/")
	_, err = w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(w.format)),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", w.bucket, key, err)
	}
	w.logger.Debug("wrote record set", "bucket", w.bucket, "key", key, "rows", len(rows), "format", w.format)
	return nil
}

func contentType(format string) string {
	if format == FormatJSON {
		return "application/x-ndjson"
	}
	return "text/csv"
}
