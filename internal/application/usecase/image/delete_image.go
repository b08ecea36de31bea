package image

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	collectionUC "github.com/khoahotran/folio/internal/application/usecase/collection"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/pkg/logger"
)

type DeleteImageUseCase struct {
	images  *collectionUC.Service[image.Image]
	storage service.ObjectStorage
	bucket  string
	logger  logger.Logger
}

func NewDeleteImageUseCase(images *collectionUC.Service[image.Image], storage service.ObjectStorage, bucket string, log logger.Logger) *DeleteImageUseCase {
	return &DeleteImageUseCase{images: images, storage: storage, bucket: bucket, logger: log}
}

type DeleteImageInput struct {
	OwnerID uuid.UUID
	ImageID uuid.UUID
}

// Execute deletes the row first, then the stored file. A failed file removal
// is logged and does not fail the request.
func (uc *DeleteImageUseCase) Execute(ctx context.Context, input DeleteImageInput) error {
	img, err := uc.images.Find(ctx, collectionUC.FindInput{OwnerID: input.OwnerID, ID: input.ImageID})
	if err != nil {
		return err
	}

	if err := uc.images.Delete(ctx, collectionUC.DeleteInput{OwnerID: input.OwnerID, ID: input.ImageID}); err != nil {
		return err
	}

	if img.StoragePath == "" {
		return nil
	}
	if err := uc.storage.Remove(ctx, uc.bucket, []string{img.StoragePath}); err != nil {
		uc.logger.Warn("Image row deleted but file removal failed",
			zap.String("image_id", input.ImageID.String()),
			zap.String("path", img.StoragePath),
			zap.Error(err),
		)
	}
	return nil
}
