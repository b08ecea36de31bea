package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	imageUC "github.com/khoahotran/folio/internal/application/usecase/image"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// multipartOverhead is the room left for part headers and form fields on
// top of the file itself.
const multipartOverhead = 1 << 20

type ImageHandler struct {
	uploadImageUC  *imageUC.UploadImageUseCase
	deleteImageUC  *imageUC.DeleteImageUseCase
	maxUploadBytes int64
	logger         logger.Logger
}

func NewImageHandler(uploadUC *imageUC.UploadImageUseCase, deleteUC *imageUC.DeleteImageUseCase, maxUploadBytes int64, log logger.Logger) *ImageHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = image.MaxUploadBytes
	}
	return &ImageHandler{
		uploadImageUC:  uploadUC,
		deleteImageUC:  deleteUC,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// UploadImage takes a multipart "file" plus an optional "data" JSON field
// carrying alt_text and order_index.
func (h *ImageHandler) UploadImage(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("ownerID not found in context", nil))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Error(apperror.NewInvalidInput(fmt.Sprintf("file must be at most %d MB", h.maxUploadBytes>>20), err))
			return
		}
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}

	var data UploadImageData
	if raw := c.PostForm("data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			c.Error(apperror.NewInvalidInput("'data' field is not valid JSON", err))
			return
		}
	}
	if alt := c.PostForm("alt_text"); alt != "" && data.AltText == nil {
		data.AltText = &alt
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	output, err := h.uploadImageUC.Execute(c.Request.Context(), imageUC.UploadImageInput{
		OwnerID:     ownerID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		File:        file,
		AltText:     data.AltText,
		OrderIndex:  data.OrderIndex,
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Info("Image uploaded",
		zap.String("image_id", output.Image.ID.String()),
		zap.Int64("size", fileHeader.Size),
	)
	c.JSON(http.StatusCreated, gin.H{"image": output.Image})
}

func (h *ImageHandler) DeleteImage(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("ownerID not found in context", nil))
		return
	}
	id, err := bindID(c, "Image")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.deleteImageUC.Execute(c.Request.Context(), imageUC.DeleteImageInput{OwnerID: ownerID, ImageID: id}); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
