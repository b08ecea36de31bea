package media_storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

// cloudinaryAdapter maps buckets onto Cloudinary folders. Only the buckets
// listed in config exist; anything else is ErrBucketNotFound.
type cloudinaryAdapter struct {
	cld     *cloudinary.Cloudinary
	buckets map[string]struct{}
	logger  logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.ObjectStorage, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	buckets := make(map[string]struct{}, len(cfg.Storage.Buckets))
	for _, b := range cfg.Storage.Buckets {
		if b = strings.TrimSpace(b); b != "" {
			buckets[b] = struct{}{}
		}
	}

	log.Info("Connect Cloudinary successfully.", zap.Int("buckets", len(buckets)))
	return &cloudinaryAdapter{cld: cld, buckets: buckets, logger: log}, nil
}

// publicID turns bucket + "<owner>/<millis>.png" into "bucket/<owner>/<millis>".
// Cloudinary appends the format itself.
func publicID(bucket, objectPath string) string {
	return bucket + "/" + strings.TrimSuffix(objectPath, path.Ext(objectPath))
}

func (a *cloudinaryAdapter) checkBucket(bucket string) error {
	if _, ok := a.buckets[bucket]; !ok {
		return fmt.Errorf("%w: %s", service.ErrBucketNotFound, bucket)
	}
	return nil
}

func (a *cloudinaryAdapter) Upload(ctx context.Context, bucket, objectPath string, file io.Reader) error {
	if err := a.checkBucket(bucket); err != nil {
		return err
	}
	overwrite := false
	_, err := a.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:  publicID(bucket, objectPath),
		Overwrite: &overwrite,
	})
	if err != nil {
		return fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	return nil
}

func (a *cloudinaryAdapter) PublicURL(bucket, objectPath string) string {
	img, err := a.cld.Image(publicID(bucket, objectPath))
	if err != nil {
		a.logger.Warn("Failed to build cloudinary asset", zap.String("path", objectPath), zap.Error(err))
		return ""
	}
	url, err := img.String()
	if err != nil {
		a.logger.Warn("Failed to render cloudinary url", zap.String("path", objectPath), zap.Error(err))
		return ""
	}
	return url
}

// Remove destroys every path and reports all failures together.
func (a *cloudinaryAdapter) Remove(ctx context.Context, bucket string, paths []string) error {
	if err := a.checkBucket(bucket); err != nil {
		return err
	}
	var errs []error
	for _, p := range paths {
		_, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
			PublicID: publicID(bucket, p),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to delete cloudinary %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
