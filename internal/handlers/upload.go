package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/config"
	"github.com/rentitout/backend/internal/middleware"
	apperrors "github.com/rentitout/backend/pkg/errors"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rentitout/backend/pkg/utils"
)

const maxImageSize = 8 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ObjectStorage is the subset of the S3 API used for listing images.
type ObjectStorage interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Storage is set at startup when R2 credentials are configured.
var Storage ObjectStorage

// NewR2Client builds an S3 client pointed at the Cloudflare R2 account.
func NewR2Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID))
	}), nil
}

func publicURL(key string) string {
	cfg := config.AppConfig
	base := strings.TrimRight(cfg.R2PublicURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.r2.dev", cfg.R2BucketName)
	}
	return base + "/" + key
}

// UploadProductImage stores one listing image and returns its public URL.
func UploadProductImage(c *gin.Context) {
	if Storage == nil {
		_ = c.Error(apperrors.Unavailable("Image uploads are not configured"))
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		file, header, err = c.Request.FormFile("file")
		if err != nil {
			_ = c.Error(apperrors.BadRequest("No image field found"))
			return
		}
	}
	defer file.Close()

	if header.Size > maxImageSize {
		_ = c.Error(apperrors.BadRequest("Image must be 8MB or smaller"))
		return
	}

	// Trust the bytes, not the client's Content-Type.
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		_ = c.Error(apperrors.BadRequest("Only JPEG, PNG and WebP images are allowed"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = c.Error(apperrors.Internal("Failed to read upload"))
		return
	}

	if e := strings.ToLower(filepath.Ext(header.Filename)); e == ".jpeg" && ext == ".jpg" {
		ext = e
	}
	key := fmt.Sprintf("products/%s/%s%s", middleware.CurrentUserID(c), utils.GenerateID(), ext)

	_, err = Storage.PutObject(c.Request.Context(), &s3.PutObjectInput{
		Bucket:        aws.String(config.AppConfig.R2BucketName),
		Key:           aws.String(key),
		Body:          file,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(header.Size),
	})
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Upload failed")
		_ = c.Error(apperrors.Internal("Upload failed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      publicURL(key),
		"key":      key,
		"mimetype": contentType,
		"size":     header.Size,
	})
}
