// Package artifacts uploads the log directory of a finished run to an
// S3-compatible object store.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/ledgerload/internal/filex"
	"github.com/dmitrijs2005/ledgerload/internal/logging"
	"github.com/hashicorp/go-multierror"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// Config locates the bucket. BaseEndpoint selects a non-AWS store such as
// MinIO and switches to path-style addressing. Without AccessKey the
// default AWS credential chain is used.
type Config struct {
	Bucket       string
	Prefix       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type Uploader struct {
	cfg Config
	log logging.Logger
}

func NewUploader(cfg Config, log logging.Logger) *Uploader {
	if log == nil {
		log = logging.Nop{}
	}
	return &Uploader{cfg: cfg, log: log.With("module", "artifacts")}
}

func (u *Uploader) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(u.cfg.Region)}
	if u.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.AccessKey,
			u.cfg.SecretKey,
			"",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Key returns the object key of file rel inside the run directory runDir.
func (u *Uploader) Key(runDir, rel string) string {
	return path.Join(u.cfg.Prefix, runDir, filepath.ToSlash(rel))
}

// UploadDir uploads every regular file under dir to
// <prefix>/<base of dir>/<relative path>. It keeps going after a failed
// file and returns the number of uploaded files with all the errors.
func (u *Uploader) UploadDir(ctx context.Context, dir string) (int, error) {
	files, err := filex.ListFiles(dir)
	if err != nil {
		return 0, err
	}

	client, err := u.client(ctx)
	if err != nil {
		return 0, err
	}

	runDir := filepath.Base(dir)
	var result *multierror.Error
	uploaded := 0
	for _, rel := range files {
		key := u.Key(runDir, rel)
		if err := u.uploadFile(ctx, client, filepath.Join(dir, filepath.FromSlash(rel)), key); err != nil {
			result = multierror.Append(result, fmt.Errorf("upload %s: %w", rel, err))
			continue
		}
		uploaded++
		u.log.Debug(ctx, "uploaded", "bucket", u.cfg.Bucket, "key", key)
	}

	u.log.Info(ctx, "logs uploaded", "bucket", u.cfg.Bucket, "prefix", u.Key(runDir, ""), "files", uploaded, "total", len(files))
	return uploaded, result.ErrorOrNil()
}

func (u *Uploader) uploadFile(ctx context.Context, client *s3.Client, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	return err
}
