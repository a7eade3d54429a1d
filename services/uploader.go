package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-site-backend/config"
)

// Upload is one image on its way to the image host.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file Upload) (string, error)
}

// NewUploader builds the configured uploader, or nil when uploads are disabled.
func NewUploader(ctx context.Context, cfg config.UploadConfig) (Uploader, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case config.UploadS3:
		return NewS3Uploader(ctx, cfg)
	case config.UploadCloudinary:
		return NewCloudinaryUploader(cfg)
	default:
		return nil, fmt.Errorf("unsupported upload provider %q", cfg.Provider)
	}
}

// objectPutter is the part of the S3 client S3Uploader needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client  objectPutter
	bucket  string
	folder  string
	baseURL string
}

func NewS3Uploader(ctx context.Context, cfg config.UploadConfig) (*S3Uploader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	baseURL := cfg.S3PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, awsCfg.Region)
	}
	return &S3Uploader{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.S3Bucket,
		folder:  cfg.Folder,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, file Upload) (string, error) {
	key := path.Join(u.folder, uuid.NewString()+extension(file.Filename))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          file.Body,
		ContentType:   aws.String(file.ContentType),
		ContentLength: aws.Int64(file.Size),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return u.baseURL + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}

// assetUploader is the part of the Cloudinary client CloudinaryUploader needs.
type assetUploader interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

type CloudinaryUploader struct {
	api    assetUploader
	folder string
}

func NewCloudinaryUploader(cfg config.UploadConfig) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &CloudinaryUploader{api: &cld.Upload, folder: cfg.Folder}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, file Upload) (string, error) {
	result, err := u.api.Upload(ctx, file.Body, uploader.UploadParams{Folder: u.folder})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
