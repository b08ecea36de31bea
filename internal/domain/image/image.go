package image

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadBytes is the largest accepted gallery upload.
const MaxUploadBytes = 5 * 1024 * 1024

type Image struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	URL         string    `json:"url"`
	AltText     *string   `json:"alt_text"`
	StoragePath string    `json:"storage_path,omitempty"`
	Order       int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrURLRequired  = errors.New("image url is required")
	ErrFileTooLarge = errors.New("file size must be less than 5MB")
	ErrNotAnImage   = errors.New("file must be an image")
	ErrEmptyFile    = errors.New("file is empty")
)

func (i Image) ItemID() uuid.UUID { return i.ID }

func (i Image) OrderIndex() int { return i.Order }

func (i Image) WithOrderIndex(idx int) Image {
	i.Order = idx
	return i
}

func (i Image) WithIdentity(id, userID uuid.UUID) Image {
	i.ID = id
	i.UserID = userID
	return i
}

func (i Image) Validate() error {
	if strings.TrimSpace(i.URL) == "" {
		return ErrURLRequired
	}
	return nil
}

// Upload describes a file the user wants to add to the gallery.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
}

// ValidateUpload applies the gallery upload policy. It is checked before any
// storage or network call.
func ValidateUpload(u Upload, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	if u.Size <= 0 {
		return ErrEmptyFile
	}
	if u.Size > maxBytes {
		return ErrFileTooLarge
	}
	if !strings.HasPrefix(strings.ToLower(u.ContentType), "image/") {
		return ErrNotAnImage
	}
	return nil
}

// ObjectPath is the storage key for an upload: <user_id>/<unix millis>.<ext>.
func ObjectPath(userID uuid.UUID, fileName string, now time.Time) string {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d.%s", userID, now.UnixMilli(), strings.ToLower(ext))
}

// DefaultAltText is the file name without its extension.
func DefaultAltText(fileName string) string {
	base := path.Base(fileName)
	return strings.TrimSuffix(base, path.Ext(base))
}
