package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/pkg/apperror"
)

// Images is the gallery. Listing, editing, reordering and deleting go
// through the embedded Collection. New entries are added with Upload.
type Images struct {
	*Collection[image.Image]
}

// Upload checks the upload policy locally, then sends the file. Nothing is
// sent for a file the server would reject on size or type.
func (i *Images) Upload(ctx context.Context, name, contentType string, data []byte, orderIndex *int) (image.Image, error) {
	err := image.ValidateUpload(image.Upload{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, image.MaxUploadBytes)
	if err != nil {
		return image.Image{}, apperror.NewInvalidInput(err.Error(), err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return image.Image{}, apperror.NewInternal("failed to build upload", err)
	}
	if _, err := part.Write(data); err != nil {
		return image.Image{}, apperror.NewInternal("failed to build upload", err)
	}
	if orderIndex != nil {
		meta, _ := json.Marshal(map[string]int{"order_index": *orderIndex})
		if err := w.WriteField("data", string(meta)); err != nil {
			return image.Image{}, apperror.NewInternal("failed to build upload", err)
		}
	}
	if err := w.Close(); err != nil {
		return image.Image{}, apperror.NewInternal("failed to build upload", err)
	}

	req, err := i.client.newRequest(ctx, http.MethodPost, i.path(), &buf, true)
	if err != nil {
		return image.Image{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		Image image.Image `json:"image"`
	}
	if err := i.client.do(req, &out); err != nil {
		return image.Image{}, err
	}
	return out.Image, nil
}
