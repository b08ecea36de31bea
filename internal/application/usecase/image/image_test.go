package image

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	collectionUC "github.com/khoahotran/folio/internal/application/usecase/collection"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	removed   []string
	uploads   int
	uploadErr error
	removeErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, bucket, path string, file io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return f.uploadErr
	}
	b, _ := io.ReadAll(file)
	f.objects[bucket+"/"+path] = b
	return nil
}

func (f *fakeStorage) PublicURL(bucket, path string) string {
	return "https://cdn.example/" + bucket + "/" + path
}

func (f *fakeStorage) Remove(_ context.Context, bucket string, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		f.removed = append(f.removed, p)
		delete(f.objects, bucket+"/"+p)
	}
	return f.removeErr
}

func (f *fakeStorage) removedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

// imageRepo keeps images in memory; saveErr makes every insert fail.
type imageRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]image.Image
	saveErr error
}

func (r *imageRepo) Save(_ context.Context, ownerID uuid.UUID, img image.Image) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return image.Image{}, r.saveErr
	}
	r.rows[img.ID] = img
	return img, nil
}

func (r *imageRepo) Update(_ context.Context, _ uuid.UUID, img image.Image) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[img.ID] = img
	return img, nil
}

func (r *imageRepo) UpdateOrder(context.Context, uuid.UUID, collection.OrderEntry) error { return nil }

func (r *imageRepo) Reorder(context.Context, uuid.UUID, []collection.OrderEntry) error { return nil }

func (r *imageRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if img, ok := r.rows[id]; !ok || img.UserID != ownerID {
		return apperror.NewNotFound("image", id.String())
	}
	delete(r.rows, id)
	return nil
}

func (r *imageRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.rows[id]
	if !ok || img.UserID != ownerID {
		return image.Image{}, apperror.NewNotFound("image", id.String())
	}
	return img, nil
}

func (r *imageRepo) ListByOwner(context.Context, uuid.UUID) ([]image.Image, error) {
	return nil, nil
}

func (r *imageRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, img := range r.rows {
		if img.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

func newUseCases(repo *imageRepo, storage *fakeStorage) (*UploadImageUseCase, *DeleteImageUseCase) {
	log := logger.NewNop()
	svc := collectionUC.NewService[image.Image](collection.KindImage, repo, service.NopPublisher{}, nil, log)
	up := NewUploadImageUseCase(svc, storage, "user-images", image.MaxUploadBytes, log)
	up.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return up, NewDeleteImageUseCase(svc, storage, "user-images", log)
}

func TestUploadImage_StoresAndRecords(t *testing.T) {
	repo := &imageRepo{rows: map[uuid.UUID]image.Image{}}
	storage := newFakeStorage()
	up, _ := newUseCases(repo, storage)
	owner := uuid.New()

	out, err := up.Execute(context.Background(), UploadImageInput{
		OwnerID:     owner,
		FileName:    "Holiday Snap.JPG",
		ContentType: "image/jpeg",
		Size:        3,
		File:        bytes.NewReader([]byte{1, 2, 3}),
	})
	require.NoError(t, err)

	wantPath := owner.String() + "/1700000000000.jpg"
	assert.Equal(t, wantPath, out.Image.StoragePath)
	assert.Equal(t, "https://cdn.example/user-images/"+wantPath, out.Image.URL)
	assert.Equal(t, "Holiday Snap", *out.Image.AltText)
	assert.Equal(t, 0, out.Image.Order)
	assert.Contains(t, storage.objects, "user-images/"+wantPath)
}

func TestUploadImage_PolicyRejectsBeforeStorage(t *testing.T) {
	storage := newFakeStorage()
	up, _ := newUseCases(&imageRepo{rows: map[uuid.UUID]image.Image{}}, storage)

	cases := map[string]UploadImageInput{
		"too large": {FileName: "big.png", ContentType: "image/png", Size: 6 * 1024 * 1024},
		"not image": {FileName: "doc.pdf", ContentType: "application/pdf", Size: 10},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			in.OwnerID = uuid.New()
			in.File = bytes.NewReader(nil)
			_, err := up.Execute(context.Background(), in)
			assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		})
	}
	assert.Zero(t, storage.uploads)
}

func TestUploadImage_MissingBucket(t *testing.T) {
	storage := newFakeStorage()
	storage.uploadErr = service.ErrBucketNotFound
	up, _ := newUseCases(&imageRepo{rows: map[uuid.UUID]image.Image{}}, storage)

	_, err := up.Execute(context.Background(), UploadImageInput{
		OwnerID: uuid.New(), FileName: "a.png", ContentType: "image/png", Size: 1, File: bytes.NewReader([]byte{1}),
	})
	require.Error(t, err)
	assert.Contains(t, apperror.UserMessage(err), "Image storage is not configured")
}

func TestUploadImage_RemovesOrphanWhenInsertFails(t *testing.T) {
	storage := newFakeStorage()
	repo := &imageRepo{rows: map[uuid.UUID]image.Image{}, saveErr: errors.New("db down")}
	up, _ := newUseCases(repo, storage)

	_, err := up.Execute(context.Background(), UploadImageInput{
		OwnerID: uuid.New(), FileName: "a.png", ContentType: "image/png", Size: 1, File: bytes.NewReader([]byte{1}),
	})
	require.Error(t, err)
	assert.Eventually(t, func() bool { return len(storage.removedPaths()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestDeleteImage_FileRemovalFailureIsNotFatal(t *testing.T) {
	storage := newFakeStorage()
	repo := &imageRepo{rows: map[uuid.UUID]image.Image{}}
	up, del := newUseCases(repo, storage)
	owner := uuid.New()

	out, err := up.Execute(context.Background(), UploadImageInput{
		OwnerID: owner, FileName: "a.png", ContentType: "image/png", Size: 1, File: bytes.NewReader([]byte{1}),
	})
	require.NoError(t, err)

	storage.removeErr = errors.New("storage unavailable")
	require.NoError(t, del.Execute(context.Background(), DeleteImageInput{OwnerID: owner, ImageID: out.Image.ID}))
	assert.Equal(t, []string{out.Image.StoragePath}, storage.removedPaths())
	assert.Empty(t, repo.rows)

	err = del.Execute(context.Background(), DeleteImageInput{OwnerID: owner, ImageID: out.Image.ID})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
