package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	collectionUC "github.com/khoahotran/folio/internal/application/usecase/collection"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// collectionCodec is the per-kind part of a collection endpoint: response
// keys and request decoding with the kind's own required fields.
type collectionCodec[T any] struct {
	plural   string
	singular string
	label    string
	// decodeCreate is nil for kinds created through another endpoint.
	decodeCreate func(c *gin.Context) (T, *int, error)
	decodeUpdate func(c *gin.Context) (uuid.UUID, func(T) T, *int, error)
}

type CollectionHandler[T collection.Item[T]] struct {
	service *collectionUC.Service[T]
	codec   collectionCodec[T]
	logger  logger.Logger
}

func (h *CollectionHandler[T]) List(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("ownerID not found in context", nil))
		return
	}
	items, err := h.service.List(c.Request.Context(), collectionUC.ListInput{OwnerID: ownerID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{h.codec.plural: items})
}

func (h *CollectionHandler[T]) Create(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("ownerID not found in context", nil))
		return
	}
	item, orderIndex, err := h.codec.decodeCreate(c)
	if err != nil {
		c.Error(err)
		return
	}

	saved, err := h.service.Create(c.Request.Context(), collectionUC.CreateInput[T]{
		OwnerID:    ownerID,
		Item:       item,
		OrderIndex: orderIndex,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{h.codec.singular: saved})
}

// Update changes only the fields present in the body. The id is in the body.
func (h *CollectionHandler[T]) Update(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("ownerID not found in context", nil))
		return
	}
	id, apply, orderIndex, err := h.codec.decodeUpdate(c)
	if err != nil {
		c.Error(err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), collectionUC.UpdateInput[T]{
		OwnerID:    ownerID,
		ID:         id,
		Apply:      apply,
		OrderIndex: orderIndex,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{h.codec.singular: updated})
}

func (h *CollectionHandler[T]) Delete(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("ownerID not found in context", nil))
		return
	}
	id, err := bindID(c, h.codec.label)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), collectionUC.DeleteInput{OwnerID: ownerID, ID: id}); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.codec.label + " deleted successfully"})
}

// Reorder applies a full permutation of the collection in one transaction.
func (h *CollectionHandler[T]) Reorder(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("ownerID not found in context", nil))
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("order is required", err))
		return
	}

	items, err := h.service.Reorder(c.Request.Context(), collectionUC.ReorderInput{
		OwnerID: ownerID,
		Entries: req.Order,
	})
	if err != nil {
		c.Error(err)
		return
	}
	h.logger.Info("Collection reordered", zap.String("kind", h.codec.plural), zap.Int("count", len(items)))
	c.JSON(http.StatusOK, gin.H{h.codec.plural: items})
}

func bindID(c *gin.Context, label string) (uuid.UUID, error) {
	var req IDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == uuid.Nil {
		return uuid.Nil, apperror.NewInvalidInput(label+" ID is required", err)
	}
	return req.ID, nil
}

func NewWorkExperienceHandler(svc *collectionUC.Service[experience.WorkExperience], log logger.Logger) *CollectionHandler[experience.WorkExperience] {
	const label = "Work experience"
	return &CollectionHandler[experience.WorkExperience]{
		service: svc,
		logger:  log,
		codec: collectionCodec[experience.WorkExperience]{
			plural:   "workExperiences",
			singular: "workExperience",
			label:    label,
			decodeCreate: func(c *gin.Context) (experience.WorkExperience, *int, error) {
				var req CreateWorkExperienceRequest
				if err := c.ShouldBindJSON(&req); err != nil || req.StartDate.IsZero() {
					return experience.WorkExperience{}, nil, apperror.NewInvalidInput("Company, title, and start_date are required", err)
				}
				return req.toDomain(), req.OrderIndex, nil
			},
			decodeUpdate: func(c *gin.Context) (uuid.UUID, func(experience.WorkExperience) experience.WorkExperience, *int, error) {
				var req UpdateWorkExperienceRequest
				if err := c.ShouldBindJSON(&req); err != nil {
					return uuid.Nil, nil, nil, apperror.NewInvalidInput("invalid request data", err)
				}
				if req.ID == uuid.Nil {
					return uuid.Nil, nil, nil, apperror.NewInvalidInput(label+" ID is required", nil)
				}
				if !req.hasFields() {
					return req.ID, nil, req.OrderIndex, nil
				}
				return req.ID, req.apply, req.OrderIndex, nil
			},
		},
	}
}

func NewProjectHandler(svc *collectionUC.Service[project.Project], log logger.Logger) *CollectionHandler[project.Project] {
	const label = "Project"
	return &CollectionHandler[project.Project]{
		service: svc,
		logger:  log,
		codec: collectionCodec[project.Project]{
			plural:   "projects",
			singular: "project",
			label:    label,
			decodeCreate: func(c *gin.Context) (project.Project, *int, error) {
				var req CreateProjectRequest
				if err := c.ShouldBindJSON(&req); err != nil {
					return project.Project{}, nil, apperror.NewInvalidInput("Project name is required", err)
				}
				p := project.Project{
					Name:        req.Name,
					Description: req.Description,
					Year:        req.Year,
					URL:         req.URL,
					LogoURL:     req.LogoURL,
				}
				if req.ID != nil {
					p.ID = *req.ID
				}
				return p, req.OrderIndex, nil
			},
			decodeUpdate: func(c *gin.Context) (uuid.UUID, func(project.Project) project.Project, *int, error) {
				var req UpdateProjectRequest
				if err := c.ShouldBindJSON(&req); err != nil {
					return uuid.Nil, nil, nil, apperror.NewInvalidInput("invalid request data", err)
				}
				if req.ID == uuid.Nil {
					return uuid.Nil, nil, nil, apperror.NewInvalidInput(label+" ID is required", nil)
				}
				if !req.hasFields() {
					return req.ID, nil, req.OrderIndex, nil
				}
				return req.ID, func(p project.Project) project.Project {
					if req.Name != nil {
						p.Name = *req.Name
					}
					req.Description.apply(&p.Description)
					req.Year.apply(&p.Year)
					req.URL.apply(&p.URL)
					req.LogoURL.apply(&p.LogoURL)
					return p
				}, req.OrderIndex, nil
			},
		},
	}
}

// NewImageCollectionHandler serves list, update and reorder for the gallery.
// Uploads and deletes go through ImageHandler.
func NewImageCollectionHandler(svc *collectionUC.Service[image.Image], log logger.Logger) *CollectionHandler[image.Image] {
	const label = "Image"
	return &CollectionHandler[image.Image]{
		service: svc,
		logger:  log,
		codec: collectionCodec[image.Image]{
			plural:   "images",
			singular: "image",
			label:    label,
			decodeUpdate: func(c *gin.Context) (uuid.UUID, func(image.Image) image.Image, *int, error) {
				var req UpdateImageRequest
				if err := c.ShouldBindJSON(&req); err != nil {
					return uuid.Nil, nil, nil, apperror.NewInvalidInput("invalid request data", err)
				}
				if req.ID == uuid.Nil {
					return uuid.Nil, nil, nil, apperror.NewInvalidInput(label+" ID is required", nil)
				}
				if !req.hasFields() {
					return req.ID, nil, req.OrderIndex, nil
				}
				return req.ID, func(i image.Image) image.Image {
					req.AltText.apply(&i.AltText)
					return i
				}, req.OrderIndex, nil
			},
		},
	}
}
