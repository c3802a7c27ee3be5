// utils/storage.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AssetStore wraps the R2 (S3-compatible) bucket holding course thumbnails
// and badge icons. Public URLs are served from the CDN base, not the bucket
// endpoint.
type AssetStore struct {
	client  *s3.Client
	bucket  string
	cdnBase string
}

var store *AssetStore

// InitR2 builds the shared asset store from the environment.
func InitR2() error {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	cdnBase := os.Getenv("CDN_BASE_URL")
	if cdnBase == "" {
		cdnBase = endpoint
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("R2_ACCESS_KEY_ID"), os.Getenv("R2_ACCESS_KEY_SECRET"), "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{URL: endpoint}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	store = &AssetStore{
		client:  s3.NewFromConfig(cfg),
		bucket:  os.Getenv("R2_BUCKET_NAME"),
		cdnBase: strings.TrimRight(cdnBase, "/"),
	}
	return nil
}

// UploadAsset stores an uploaded image under the given key and returns its
// public URL. Only image content types are accepted; everything else on this
// service ships as JSON.
func UploadAsset(fileHeader *multipart.FileHeader, key string) (string, error) {
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported asset type %q (images only)", contentType)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	body := new(bytes.Buffer)
	if _, err := io.Copy(body, file); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	if _, err := store.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", store.cdnBase, key), nil
}

// DeleteAssetURL removes a replaced thumbnail or icon by its public URL.
// URLs outside this store's CDN base are ignored.
func DeleteAssetURL(url string) error {
	if url == "" || !strings.HasPrefix(url, store.cdnBase+"/") {
		return nil
	}
	key := strings.TrimPrefix(url, store.cdnBase+"/")
	_, err := store.client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from R2: %w", err)
	}
	return nil
}
