package persistence

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/pkg/logger"
)

var experienceSchema = collectionSchema[experience.WorkExperience]{
	kind:    collection.KindWorkExperience,
	columns: []string{"company", "title", "start_date", "end_date", "description", "logo_url"},
	values: func(w experience.WorkExperience) []any {
		return []any{w.Company, w.Title, w.StartDate, w.EndDate, w.Description, w.LogoURL}
	},
	scan: func(row pgx.Row) (experience.WorkExperience, error) {
		var w experience.WorkExperience
		err := row.Scan(
			&w.ID, &w.UserID,
			&w.Company, &w.Title, &w.StartDate, &w.EndDate, &w.Description, &w.LogoURL,
			&w.Order, &w.CreatedAt, &w.UpdatedAt,
		)
		return w, err
	},
}

var projectSchema = collectionSchema[project.Project]{
	kind:    collection.KindProject,
	columns: []string{"name", "description", "year", "url", "logo_url"},
	values: func(p project.Project) []any {
		return []any{p.Name, p.Description, p.Year, p.URL, p.LogoURL}
	},
	scan: func(row pgx.Row) (project.Project, error) {
		var p project.Project
		err := row.Scan(
			&p.ID, &p.UserID,
			&p.Name, &p.Description, &p.Year, &p.URL, &p.LogoURL,
			&p.Order, &p.CreatedAt, &p.UpdatedAt,
		)
		return p, err
	},
}

var imageSchema = collectionSchema[image.Image]{
	kind:    collection.KindImage,
	columns: []string{"url", "alt_text", "storage_path"},
	values: func(i image.Image) []any {
		return []any{i.URL, i.AltText, i.StoragePath}
	},
	scan: func(row pgx.Row) (image.Image, error) {
		var i image.Image
		err := row.Scan(
			&i.ID, &i.UserID,
			&i.URL, &i.AltText, &i.StoragePath,
			&i.Order, &i.CreatedAt, &i.UpdatedAt,
		)
		return i, err
	},
}

func NewPostgresExperienceRepo(db *pgxpool.Pool, log logger.Logger) collection.Repository[experience.WorkExperience] {
	return newPostgresCollectionRepo(db, experienceSchema, log)
}

func NewPostgresProjectRepo(db *pgxpool.Pool, log logger.Logger) collection.Repository[project.Project] {
	return newPostgresCollectionRepo(db, projectSchema, log)
}

func NewPostgresImageRepo(db *pgxpool.Pool, log logger.Logger) collection.Repository[image.Image] {
	return newPostgresCollectionRepo(db, imageSchema, log)
}
