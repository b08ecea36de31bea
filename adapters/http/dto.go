package http

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
)

// Optional tells an absent JSON key apart from an explicit null. Set is
// true whenever the key was present.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// apply writes the value into dst when the key was present.
func (o Optional[T]) apply(dst **T) {
	if o.Set {
		*dst = o.Value
	}
}

// Auth DTOs

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Profile DTOs

type SaveProfileRequest struct {
	Username      string  `json:"username" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	CustomTitle   *string `json:"custom_title"`
	CustomSubtext *string `json:"custom_subtext"`
	AvatarURL     *string `json:"avatar_url"`
}

// Collection DTOs

type IDRequest struct {
	ID uuid.UUID `json:"id"`
}

type ReorderRequest struct {
	Order []collection.OrderEntry `json:"order" binding:"required"`
}

type CreateWorkExperienceRequest struct {
	ID          *uuid.UUID       `json:"id"`
	Company     string           `json:"company" binding:"required"`
	Title       string           `json:"title" binding:"required"`
	StartDate   experience.Date  `json:"start_date"`
	EndDate     *experience.Date `json:"end_date"`
	Description *string          `json:"description"`
	LogoURL     *string          `json:"logo_url"`
	OrderIndex  *int             `json:"order_index"`
}

func (r CreateWorkExperienceRequest) toDomain() experience.WorkExperience {
	w := experience.WorkExperience{
		Company:     r.Company,
		Title:       r.Title,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Description: r.Description,
		LogoURL:     r.LogoURL,
	}
	if r.ID != nil {
		w.ID = *r.ID
	}
	return w
}

type UpdateWorkExperienceRequest struct {
	ID          uuid.UUID                 `json:"id"`
	Company     *string                   `json:"company"`
	Title       *string                   `json:"title"`
	StartDate   *experience.Date          `json:"start_date"`
	EndDate     Optional[experience.Date] `json:"end_date"`
	Description Optional[string]          `json:"description"`
	LogoURL     Optional[string]          `json:"logo_url"`
	OrderIndex  *int                      `json:"order_index"`
}

func (r UpdateWorkExperienceRequest) hasFields() bool {
	return r.Company != nil || r.Title != nil || r.StartDate != nil ||
		r.EndDate.Set || r.Description.Set || r.LogoURL.Set
}

func (r UpdateWorkExperienceRequest) apply(w experience.WorkExperience) experience.WorkExperience {
	if r.Company != nil {
		w.Company = *r.Company
	}
	if r.Title != nil {
		w.Title = *r.Title
	}
	if r.StartDate != nil {
		w.StartDate = *r.StartDate
	}
	r.EndDate.apply(&w.EndDate)
	r.Description.apply(&w.Description)
	r.LogoURL.apply(&w.LogoURL)
	return w
}

type CreateProjectRequest struct {
	ID          *uuid.UUID `json:"id"`
	Name        string     `json:"name" binding:"required"`
	Description *string    `json:"description"`
	Year        *string    `json:"year"`
	URL         *string    `json:"url"`
	LogoURL     *string    `json:"logo_url"`
	OrderIndex  *int       `json:"order_index"`
}

type UpdateProjectRequest struct {
	ID          uuid.UUID        `json:"id"`
	Name        *string          `json:"name"`
	Description Optional[string] `json:"description"`
	Year        Optional[string] `json:"year"`
	URL         Optional[string] `json:"url"`
	LogoURL     Optional[string] `json:"logo_url"`
	OrderIndex  *int             `json:"order_index"`
}

func (r UpdateProjectRequest) hasFields() bool {
	return r.Name != nil || r.Description.Set || r.Year.Set || r.URL.Set || r.LogoURL.Set
}

type UpdateImageRequest struct {
	ID         uuid.UUID        `json:"id"`
	AltText    Optional[string] `json:"alt_text"`
	OrderIndex *int             `json:"order_index"`
}

func (r UpdateImageRequest) hasFields() bool {
	return r.AltText.Set
}

type UploadImageData struct {
	AltText    *string `json:"alt_text"`
	OrderIndex *int    `json:"order_index"`
}
