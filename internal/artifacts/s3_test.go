package artifacts

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapSeams(t *testing.T) {
	t.Helper()
	origLoad, origNew, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject = origLoad, origNew, origPut
	})
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		var lo config.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}
}

func runDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "test-logs-2024-05-01T10-00-00")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o770))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user-a"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.txt"), []byte("ok"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "x"), []byte("x"), 0o600))
	return dir
}

func TestUploadDir_PutsEveryFile(t *testing.T) {
	swapSeams(t)

	var gotOpts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		assert.Equal(t, "eu-west-1", cfg.Region)
		require.NotNil(t, cfg.Credentials)
		return &s3.Client{}
	}

	var mu sync.Mutex
	bodies := map[string]string{}
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		assert.Equal(t, "logs", aws.ToString(in.Bucket))
		mu.Lock()
		bodies[aws.ToString(in.Key)] = string(b)
		mu.Unlock()
		return &s3.PutObjectOutput{}, nil
	}

	u := NewUploader(Config{
		Bucket: "logs", Prefix: "ledgerload", Region: "eu-west-1",
		BaseEndpoint: "http://minio:9000", AccessKey: "ak", SecretKey: "sk",
	}, nil)

	n, err := u.UploadDir(context.Background(), runDir(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys := make([]string, 0, len(bodies))
	for k := range bodies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"ledgerload/test-logs-2024-05-01T10-00-00/sub/x",
		"ledgerload/test-logs-2024-05-01T10-00-00/summary.txt",
		"ledgerload/test-logs-2024-05-01T10-00-00/user-a",
	}, keys)
	assert.Equal(t, "ok", bodies["ledgerload/test-logs-2024-05-01T10-00-00/summary.txt"])

	assert.Equal(t, "http://minio:9000", aws.ToString(gotOpts.BaseEndpoint))
	assert.True(t, gotOpts.UsePathStyle)
}

func TestUploadDir_CollectsErrors(t *testing.T) {
	swapSeams(t)
	newS3ClientFromConfig = func(aws.Config, ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		if filepath.Base(aws.ToString(in.Key)) == "user-a" {
			return nil, errors.New("access denied")
		}
		return &s3.PutObjectOutput{}, nil
	}

	n, err := NewUploader(Config{Bucket: "logs"}, nil).UploadDir(context.Background(), runDir(t))
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, err.Error(), "upload user-a: access denied")
}

func TestUploadDir_ConfigError(t *testing.T) {
	swapSeams(t)
	loadDefaultAWSConfig = func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}

	_, err := NewUploader(Config{Bucket: "logs"}, nil).UploadDir(context.Background(), runDir(t))
	require.ErrorContains(t, err, "no creds")
}

func TestUploadDir_MissingDir(t *testing.T) {
	_, err := NewUploader(Config{Bucket: "logs"}, nil).UploadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestKey(t *testing.T) {
	u := NewUploader(Config{}, nil)
	assert.Equal(t, "run/user-x", u.Key("run", "user-x"))
	u = NewUploader(Config{Prefix: "p"}, nil)
	assert.Equal(t, "p/run/a/b", u.Key("run", "a/b"))
}
