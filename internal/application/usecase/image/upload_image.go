package image

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	collectionUC "github.com/khoahotran/folio/internal/application/usecase/collection"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type UploadImageUseCase struct {
	images   *collectionUC.Service[image.Image]
	storage  service.ObjectStorage
	bucket   string
	maxBytes int64
	logger   logger.Logger
	now      func() time.Time
}

func NewUploadImageUseCase(
	images *collectionUC.Service[image.Image],
	storage service.ObjectStorage,
	bucket string,
	maxBytes int64,
	log logger.Logger,
) *UploadImageUseCase {
	return &UploadImageUseCase{
		images:   images,
		storage:  storage,
		bucket:   bucket,
		maxBytes: maxBytes,
		logger:   log,
		now:      time.Now,
	}
}

type UploadImageInput struct {
	OwnerID     uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	File        io.Reader
	AltText     *string
	OrderIndex  *int
}

type UploadImageOutput struct {
	Image image.Image
}

// Execute checks the upload policy, stores the file, then records the row.
// If the row cannot be written the stored object is removed again.
func (uc *UploadImageUseCase) Execute(ctx context.Context, input UploadImageInput) (*UploadImageOutput, error) {
	upload := image.Upload{FileName: input.FileName, ContentType: input.ContentType, Size: input.Size}
	if err := image.ValidateUpload(upload, uc.maxBytes); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	objectPath := image.ObjectPath(input.OwnerID, input.FileName, uc.now())
	if err := uc.storage.Upload(ctx, uc.bucket, objectPath, input.File); err != nil {
		if errors.Is(err, service.ErrBucketNotFound) {
			return nil, apperror.NewAppError(apperror.ErrInternal,
				"Image storage is not configured. Please contact support.",
				"bucket "+uc.bucket+" does not exist", err)
		}
		return nil, apperror.NewInternal("failed to upload image", err)
	}

	alt := input.AltText
	if alt == nil || *alt == "" {
		def := image.DefaultAltText(input.FileName)
		alt = &def
	}

	img, err := uc.images.Create(ctx, collectionUC.CreateInput[image.Image]{
		OwnerID: input.OwnerID,
		Item: image.Image{
			URL:         uc.storage.PublicURL(uc.bucket, objectPath),
			AltText:     alt,
			StoragePath: objectPath,
		},
		OrderIndex: input.OrderIndex,
	})
	if err != nil {
		go uc.removeOrphan(objectPath)
		return nil, err
	}

	return &UploadImageOutput{Image: img}, nil
}

func (uc *UploadImageUseCase) removeOrphan(objectPath string) {
	if err := uc.storage.Remove(context.Background(), uc.bucket, []string{objectPath}); err != nil {
		uc.logger.Error("Failed to remove orphaned upload", err, zap.String("path", objectPath))
	}
}
