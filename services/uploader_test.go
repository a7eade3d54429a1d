package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/rpupo63/portfolio-site-backend/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	putter := &fakePutter{}
	u := &S3Uploader{client: putter, bucket: "media", folder: "portfolio_hero", baseURL: "https://cdn.example.com"}

	url, err := u.Upload(context.Background(), Upload{
		Filename:    "Me.PNG",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("data"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	key := *putter.input.Key
	if !strings.HasPrefix(key, "portfolio_hero/") || !strings.HasSuffix(key, ".png") {
		t.Errorf("key = %q, want portfolio_hero/<uuid>.png", key)
	}
	if *putter.input.Bucket != "media" || *putter.input.ContentType != "image/png" {
		t.Errorf("input = %+v", putter.input)
	}
	if url != "https://cdn.example.com/"+key {
		t.Errorf("url = %q, want public url for %q", url, key)
	}

	putter.err = errors.New("access denied")
	if _, err := u.Upload(context.Background(), Upload{Filename: "a.jpg", Body: strings.NewReader("x")}); err == nil {
		t.Error("Upload() error = nil, want failure from PutObject")
	}
}

type fakeAssetUploader struct {
	params uploader.UploadParams
	result *uploader.UploadResult
	err    error
}

func (f *fakeAssetUploader) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = params
	return f.result, f.err
}

func TestCloudinaryUploader_Upload(t *testing.T) {
	api := &fakeAssetUploader{result: &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/portfolio_hero/x.png"}}
	u := &CloudinaryUploader{api: api, folder: "portfolio_hero"}

	url, err := u.Upload(context.Background(), Upload{Filename: "x.png", Body: strings.NewReader("data")})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != api.result.SecureURL {
		t.Errorf("url = %q", url)
	}
	if api.params.Folder != "portfolio_hero" {
		t.Errorf("folder = %q", api.params.Folder)
	}

	api.err = errors.New("quota exceeded")
	if _, err := u.Upload(context.Background(), Upload{Body: strings.NewReader("x")}); err == nil {
		t.Error("Upload() error = nil, want failure")
	}
}

func TestNewUploader(t *testing.T) {
	u, err := NewUploader(context.Background(), config.UploadConfig{})
	if err != nil || u != nil {
		t.Fatalf("NewUploader() = %v, %v, want nil, nil when disabled", u, err)
	}

	if _, err := NewUploader(context.Background(), config.UploadConfig{Provider: "ftp"}); err == nil {
		t.Error("NewUploader() error = nil for an unknown provider")
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"photo.JPG":         ".jpg",
		"noext":             "",
		"weird.verylongext": "",
		"a.b.webp":          ".webp",
	}
	for in, want := range tests {
		if got := extension(in); got != want {
			t.Errorf("extension(%q) = %q, want %q", in, got, want)
		}
	}
}
