package filestore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/machrent/machrent/internal/server/config"
)

func testConfig() *sc.Config {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	return cfg
}

func TestObjectKey(t *testing.T) {
	k1 := objectKey("avatar.png", "avatars")
	k2 := objectKey("avatar.png", "avatars")

	if !strings.HasPrefix(k1, "avatars/") {
		t.Fatalf("key %q not placed under folder", k1)
	}
	if !strings.HasSuffix(k1, "-avatar.png") {
		t.Fatalf("key %q does not keep the file name", k1)
	}
	if k1 == k2 {
		t.Fatalf("keys for identical names must not collide: %q", k1)
	}
}

func TestUpload(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPut := putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
	})

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.New(s3.Options{})
	}

	var gotBucket, gotKey, gotBody string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		gotBucket = aws.ToString(in.Bucket)
		gotKey = aws.ToString(in.Key)
		b, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		gotBody = string(b)
		return &s3.PutObjectOutput{}, nil
	}

	store := NewS3Store(testConfig())
	key, err := store.Upload(context.Background(), []byte("image-bytes"), "avatar.png", "avatars")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != gotKey {
		t.Fatalf("returned key %q differs from uploaded key %q", key, gotKey)
	}
	if gotBucket != "uploads" {
		t.Fatalf("want bucket uploads, got %q", gotBucket)
	}
	if gotBody != "image-bytes" {
		t.Fatalf("body mismatch: %q", gotBody)
	}
}

func TestUpload_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}

	store := NewS3Store(testConfig())
	if _, err := store.Upload(context.Background(), []byte("x"), "a.png", "avatars"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUpload_PutError(t *testing.T) {
	origNew := newS3ClientFromConfig
	origPut := putObject
	t.Cleanup(func() {
		newS3ClientFromConfig = origNew
		putObject = origPut
	})

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.New(s3.Options{})
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return nil, errors.New("bucket missing")
	}

	store := NewS3Store(testConfig())
	if _, err := store.Upload(context.Background(), []byte("x"), "a.png", "avatars"); err == nil {
		t.Fatalf("expected error")
	}
}
